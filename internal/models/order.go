package models

import (
	"strconv"
	"time"
)

// OrderStatus enumerates the status filter values of the orders screen.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

// Order is a row of the orders screen.
type Order struct {
	ID           int64       `json:"id"`
	Number       string      `json:"order_number"`
	CustomerName string      `json:"customer_name"`
	Status       OrderStatus `json:"status"`
	Total        float64     `json:"total"`
	ItemCount    int         `json:"items_count"`
	CreatedAt    time.Time   `json:"created_at"`
}

func (o Order) ItemID() string { return "order-" + strconv.FormatInt(o.ID, 10) }

func (Order) ExportHeaders() []string {
	return []string{"Number", "Customer", "Status", "Items", "Total", "Created"}
}

func (o Order) ExportRow() map[string]string {
	return map[string]string{
		"Number":   o.Number,
		"Customer": o.CustomerName,
		"Status":   string(o.Status),
		"Items":    strconv.Itoa(o.ItemCount),
		"Total":    strconv.FormatFloat(o.Total, 'f', 2, 64),
		"Created":  formatDate(o.CreatedAt),
	}
}

// Customer is a row of the customers screen.
type Customer struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	Status     string    `json:"status"`
	OrderCount int       `json:"orders_count"`
	CreatedAt  time.Time `json:"created_at"`
}

func (c Customer) ItemID() string { return "customer-" + strconv.FormatInt(c.ID, 10) }

func (Customer) ExportHeaders() []string {
	return []string{"Name", "Email", "Phone", "Status", "Orders", "Joined"}
}

func (c Customer) ExportRow() map[string]string {
	return map[string]string{
		"Name":   c.Name,
		"Email":  c.Email,
		"Phone":  c.Phone,
		"Status": c.Status,
		"Orders": strconv.Itoa(c.OrderCount),
		"Joined": formatDate(c.CreatedAt),
	}
}
