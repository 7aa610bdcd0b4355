// Package status defines the closed status vocabularies for work tasks and
// service orders, and how each code is presented to the user.
package status

// EntityType selects which vocabulary a status code belongs to.
type EntityType int

const (
	EntityTask EntityType = iota
	EntityOrder
)

func (e EntityType) String() string {
	switch e {
	case EntityTask:
		return "task"
	case EntityOrder:
		return "order"
	default:
		return "unknown"
	}
}

// Task is the status of a contractor work task.
type Task int

const (
	TaskUnknown Task = iota
	TaskPending
	TaskInstalling
	TaskDoneInstalling
	TaskReInstall
	TaskCompleted
	TaskCancelled
)

// Order is the status of a service or design order.
type Order int

const (
	OrderUnknown Order = iota
	OrderPending
	OrderProcessing
	OrderConsultingAndSketching
	OrderCheckingDrawing
	OrderDepositSuccessful
	OrderAssignToDesigner
	OrderDeterminingDesignPrice
	OrderDeterminingMaterialPrice
	OrderMaterialPriceConfirmed
	OrderDoneDesign
	OrderPaymentSuccess
	OrderInstalling
	OrderDoneInstalling
	OrderReInstall
	OrderSuccessfully
	OrderCompleted
	OrderWarning
	OrderRefund
	OrderDoneRefund
	OrderStopService
	OrderCancelled
)

// Descriptor is how a status is shown: a label and an Ant Design color tag.
type Descriptor struct {
	Label    string `json:"label"`
	ColorTag string `json:"color_tag"`
}

// FallbackColor is the color tag used for codes outside the vocabulary.
const FallbackColor = "default"

type entry struct {
	code  string
	label string
	color string
}

var taskTable = map[Task]entry{
	TaskPending:        {"Pending", "Đang chờ", "blue"},
	TaskInstalling:     {"Installing", "Đang lắp đặt", "processing"},
	TaskDoneInstalling: {"DoneInstalling", "Đã lắp đặt xong", "cyan"},
	TaskReInstall:      {"ReInstall", "Lắp đặt lại", "orange"},
	TaskCompleted:      {"Completed", "Hoàn thành", "success"},
	TaskCancelled:      {"Cancelled", "Đã hủy", "error"},
}

var orderTable = map[Order]entry{
	OrderPending:                  {"Pending", "Đang chờ", "blue"},
	OrderProcessing:               {"Processing", "Đang xử lý", "processing"},
	OrderConsultingAndSketching:   {"ConsultingAndSketching", "Đang tư vấn và phác thảo", "geekblue"},
	OrderCheckingDrawing:          {"CheckingDrawing", "Đang kiểm tra bản vẽ", "purple"},
	OrderDepositSuccessful:        {"DepositSuccessful", "Đặt cọc thành công", "green"},
	OrderAssignToDesigner:         {"AssignToDesigner", "Đã giao cho nhà thiết kế", "cyan"},
	OrderDeterminingDesignPrice:   {"DeterminingDesignPrice", "Đang xác định giá thiết kế", "gold"},
	OrderDeterminingMaterialPrice: {"DeterminingMaterialPrice", "Đang xác định giá vật liệu", "gold"},
	OrderMaterialPriceConfirmed:   {"MaterialPriceConfirmed", "Đã xác nhận giá vật liệu", "lime"},
	OrderDoneDesign:               {"DoneDesign", "Hoàn thành thiết kế", "green"},
	OrderPaymentSuccess:           {"PaymentSuccess", "Thanh toán thành công", "success"},
	OrderInstalling:               {"Installing", "Đang lắp đặt", "processing"},
	OrderDoneInstalling:           {"DoneInstalling", "Đã lắp đặt xong", "cyan"},
	OrderReInstall:                {"ReInstall", "Lắp đặt lại", "orange"},
	OrderSuccessfully:             {"Successfully", "Thành công", "success"},
	OrderCompleted:                {"Completed", "Hoàn thành", "success"},
	OrderWarning:                  {"Warning", "Cảnh báo", "warning"},
	OrderRefund:                   {"Refund", "Hoàn tiền", "volcano"},
	OrderDoneRefund:               {"DoneRefund", "Đã hoàn tiền", "magenta"},
	OrderStopService:              {"StopService", "Ngừng dịch vụ", "red"},
	OrderCancelled:                {"Cancelled", "Đã hủy", "error"},
}

var (
	taskByCode  = indexTask()
	orderByCode = indexOrder()
)

func indexTask() map[string]Task {
	idx := make(map[string]Task, len(taskTable))
	for t, e := range taskTable {
		idx[e.code] = t
	}
	return idx
}

func indexOrder() map[string]Order {
	idx := make(map[string]Order, len(orderTable))
	for o, e := range orderTable {
		idx[e.code] = o
	}
	return idx
}

// ParseTask maps a wire code to a Task, or TaskUnknown.
func ParseTask(code string) Task {
	return taskByCode[code]
}

// ParseOrder maps a wire code to an Order, or OrderUnknown.
func ParseOrder(code string) Order {
	return orderByCode[code]
}

// Code returns the wire code, or "" for TaskUnknown.
func (t Task) Code() string { return taskTable[t].code }

// Code returns the wire code, or "" for OrderUnknown.
func (o Order) Code() string { return orderTable[o].code }

func (t Task) String() string {
	if t == TaskUnknown {
		return "Unknown"
	}
	return t.Code()
}

func (o Order) String() string {
	if o == OrderUnknown {
		return "Unknown"
	}
	return o.Code()
}

// Describe returns the label and color tag for code in the vocabulary of
// entity. Codes outside the vocabulary are echoed back with the fallback
// color rather than rejected.
func Describe(entity EntityType, code string) Descriptor {
	var (
		e  entry
		ok bool
	)
	switch entity {
	case EntityTask:
		e, ok = taskTable[ParseTask(code)]
	case EntityOrder:
		e, ok = orderTable[ParseOrder(code)]
	}
	if !ok {
		return Descriptor{Label: code, ColorTag: FallbackColor}
	}
	return Descriptor{Label: e.label, ColorTag: e.color}
}

// Tasks lists every known task status in declaration order.
func Tasks() []Task {
	out := make([]Task, 0, len(taskTable))
	for t := TaskPending; t <= TaskCancelled; t++ {
		out = append(out, t)
	}
	return out
}

// Orders lists every known order status in declaration order.
func Orders() []Order {
	out := make([]Order, 0, len(orderTable))
	for o := OrderPending; o <= OrderCancelled; o++ {
		out = append(out, o)
	}
	return out
}
