package greenspace

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/nhle/greenspace-sync/internal/model"
	"github.com/nhle/greenspace-sync/internal/source"
)

// timestampLayouts are tried in order when parsing server timestamps. The
// API omits the zone offset on most fields.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Adapter maps the GreenSpace API onto the client's domain types.
// It implements source.Remote.
type Adapter struct {
	client *Client
	loc    *time.Location
}

var _ source.Remote = (*Adapter)(nil)

// NewAdapter creates a new GreenSpace adapter. Zone-less server
// timestamps are interpreted in time.Local.
func NewAdapter(baseURL, token string) *Adapter {
	return &Adapter{
		client: NewClient(baseURL, token),
		loc:    time.Local,
	}
}

// ValidateConnection verifies credentials by calling GET /api/Account/me.
// Returns the account's display name on success.
func (a *Adapter) ValidateConnection(ctx context.Context) (string, error) {
	var me Account
	if err := a.client.Get(ctx, "/api/Account/me", &me); err != nil {
		return "", fmt.Errorf("validating GreenSpace connection: %w", err)
	}
	if me.FullName != "" {
		return me.FullName, nil
	}
	return me.Email, nil
}

// FetchCollection returns every work task assigned to ownerID.
func (a *Adapter) FetchCollection(ctx context.Context, ownerID string) ([]model.WorkItem, error) {
	var tasks []WorkTask
	path := "/api/WorkTask/contractor/" + url.PathEscape(ownerID)
	if err := a.client.Get(ctx, path, &tasks); err != nil {
		return nil, fmt.Errorf("fetching work tasks: %w", err)
	}

	items := make([]model.WorkItem, 0, len(tasks))
	for _, t := range tasks {
		items = append(items, a.mapWorkTask(t))
	}
	return items, nil
}

// Mutate sends a partial update for a work task.
func (a *Adapter) Mutate(ctx context.Context, id string, patch model.Patch) (model.WorkItem, error) {
	body := WorkTaskUpdate{Status: patch.Status}
	if patch.Appointment != nil {
		body.DateAppointment = &patch.Appointment.Date
		if patch.Appointment.Time != "" {
			body.TimeAppointment = &patch.Appointment.Time
		}
	}

	var updated WorkTask
	if err := a.client.Put(ctx, "/api/WorkTask/"+url.PathEscape(id), body, &updated); err != nil {
		return model.WorkItem{}, fmt.Errorf("updating work task %s: %w", id, err)
	}
	if updated.ID == "" {
		// Some deployments answer 204; echo the request back.
		updated.ID = id
		if patch.Status != nil {
			updated.Status = *patch.Status
		}
	}
	return a.mapWorkTask(updated), nil
}

// UpdateOrderStatus moves a service order to the given status code.
func (a *Adapter) UpdateOrderStatus(ctx context.Context, orderID string, status string) error {
	path := "/api/ServiceOrder/" + url.PathEscape(orderID) + "/status"
	if err := a.client.Put(ctx, path, OrderStatusUpdate{Status: status}, nil); err != nil {
		return fmt.Errorf("updating order %s status: %w", orderID, err)
	}
	return nil
}

// FetchNotifications returns all notifications for userID.
func (a *Adapter) FetchNotifications(ctx context.Context, userID string) ([]model.Notification, error) {
	var raw []Notification
	path := "/api/Notification/user/" + url.PathEscape(userID)
	if err := a.client.Get(ctx, path, &raw); err != nil {
		return nil, fmt.Errorf("fetching notifications: %w", err)
	}

	out := make([]model.Notification, 0, len(raw))
	for _, n := range raw {
		out = append(out, model.Notification{
			ID:        n.ID,
			UserID:    n.UserID,
			Title:     n.Title,
			Content:   n.Description,
			IsSeen:    n.IsSeen,
			CreatedAt: a.parseTimestamp(n.CreatedDate),
		})
	}
	return out, nil
}

// MarkNotificationSeen flags a notification as read on the server.
func (a *Adapter) MarkNotificationSeen(ctx context.Context, id string) error {
	path := "/api/Notification/" + url.PathEscape(id) + "/seen"
	if err := a.client.Put(ctx, path, nil, nil); err != nil {
		return fmt.Errorf("marking notification %s seen: %w", id, err)
	}
	return nil
}

// FetchCart returns the lines of userID's cart.
func (a *Adapter) FetchCart(ctx context.Context, userID string) ([]model.CartLine, error) {
	var cart Cart
	if err := a.client.Get(ctx, "/api/Cart/"+url.PathEscape(userID), &cart); err != nil {
		return nil, fmt.Errorf("fetching cart: %w", err)
	}
	return mapCart(cart), nil
}

// UpdateCartQuantity sets the quantity of one product and returns the
// server's view of the whole cart.
func (a *Adapter) UpdateCartQuantity(
	ctx context.Context,
	userID string,
	productID string,
	quantity int,
) ([]model.CartLine, error) {
	var cart Cart
	body := CartItemUpdate{ProductID: productID, Quantity: quantity}
	if err := a.client.Put(ctx, "/api/Cart/"+url.PathEscape(userID), body, &cart); err != nil {
		return nil, fmt.Errorf("updating cart quantity for %s: %w", productID, err)
	}
	return mapCart(cart), nil
}

func (a *Adapter) mapWorkTask(t WorkTask) model.WorkItem {
	item := model.WorkItem{
		ID:         t.ID,
		OwnerID:    t.UserID,
		Title:      t.Name,
		Status:     t.Status,
		ModifiedAt: a.parseTimestamp(t.ModificationDate),
		CreatedAt:  a.parseTimestamp(t.CreationDate),
	}

	if date := deref(t.DateAppointment); date != "" {
		item.Appointment = &model.Appointment{
			Date: datePart(date),
			Time: deref(t.TimeAppointment),
		}
	}

	if so := t.ServiceOrder; so != nil {
		item.RelatedOrder = &model.OrderRef{
			ID:     so.ID,
			Status: so.Status,
			Code:   so.OrderCode,
		}
		item.CustomerName = so.UserName
		item.Address = so.Address
		if item.Title == "" {
			item.Title = so.OrderCode
		}
	}
	return item
}

func mapCart(c Cart) []model.CartLine {
	lines := make([]model.CartLine, 0, len(c.Items))
	for _, it := range c.Items {
		lines = append(lines, model.CartLine{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.Price,
		})
	}
	return lines
}

// parseTimestamp returns the zero time for missing or unparseable values.
func (a *Adapter) parseTimestamp(s *string) time.Time {
	v := deref(s)
	if v == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, v, a.loc); err == nil {
			return t
		}
	}
	return time.Time{}
}

// datePart trims a date that was serialized as a full timestamp.
func datePart(s string) string {
	if i := strings.IndexByte(s, 'T'); i > 0 {
		return s[:i]
	}
	return s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
