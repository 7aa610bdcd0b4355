package greenspace

// WorkTask is a contractor task as returned by GET /api/WorkTask/....
// Optional fields are pointers because the API sends explicit nulls.
type WorkTask struct {
	ID               string        `json:"id"`
	Name             string        `json:"name"`
	Status           string        `json:"status"`
	UserID           string        `json:"userId"`
	DateAppointment  *string       `json:"dateAppointment"`
	TimeAppointment  *string       `json:"timeAppointment"`
	ModificationDate *string       `json:"modificationDate"`
	CreationDate     *string       `json:"creationDate"`
	ServiceOrder     *ServiceOrder `json:"serviceOrder"`
}

// ServiceOrder is the order embedded in a work task.
type ServiceOrder struct {
	ID        string `json:"id"`
	OrderCode string `json:"orderCode"`
	Status    string `json:"status"`
	UserName  string `json:"userName"`
	Address   string `json:"address"`
}

// WorkTaskUpdate is the body of PUT /api/WorkTask/{id}. Nil fields are
// left unchanged by the server.
type WorkTaskUpdate struct {
	Status          *string `json:"status,omitempty"`
	DateAppointment *string `json:"dateAppointment,omitempty"`
	TimeAppointment *string `json:"timeAppointment,omitempty"`
}

// OrderStatusUpdate is the body of PUT /api/ServiceOrder/{id}/status.
type OrderStatusUpdate struct {
	Status string `json:"status"`
}

// Notification is a user notification as returned by the API.
type Notification struct {
	ID          string  `json:"id"`
	UserID      string  `json:"userId"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	IsSeen      bool    `json:"isSeen"`
	CreatedDate *string `json:"createdDate"`
}

// Cart is the response of the cart endpoints.
type Cart struct {
	UserID string     `json:"userId"`
	Items  []CartItem `json:"cartItems"`
}

// CartItem is a single product line in a Cart.
type CartItem struct {
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
}

// CartItemUpdate is the body of PUT /api/Cart/{userId}.
type CartItemUpdate struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// Account is returned by GET /api/Account/me.
type Account struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// ErrorResponse is the problem-details body the API returns on 4xx.
type ErrorResponse struct {
	Title   string              `json:"title"`
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}
