// Package model содержит доменные сущности курьерского сервиса 123Geleverd.
package model

import "time"

// User описывает профиль администратора, полученный при входе.
type User struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role,omitempty"`
}

// Session связывает токен доступа с профилем администратора.
type Session struct {
	Token     string    `json:"token"`
	User      User      `json:"user"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Complete сообщает, что у сессии есть и токен, и профиль.
func (s Session) Complete() bool {
	return s.Token != "" && s.User.Username != ""
}

// OrderStatus описывает этап жизненного цикла заказа.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusPickedUp  OrderStatus = "picked_up"
	OrderStatusInTransit OrderStatus = "in_transit"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// OrderStatuses перечисляет статусы в порядке жизненного цикла.
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusPickedUp,
	OrderStatusInTransit,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// Valid сообщает, является ли статус одним из известных значений.
func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Terminal сообщает, что заказ больше не меняет статус.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// VehicleType описывает класс транспортного средства.
type VehicleType string

const (
	VehicleBestelauto VehicleType = "bestelauto"
	VehicleBestelbus  VehicleType = "bestelbus"
	VehicleBakwagen   VehicleType = "bakwagen"
)

// Valid сообщает, является ли класс транспорта одним из трёх допустимых.
func (v VehicleType) Valid() bool {
	switch v {
	case VehicleBestelauto, VehicleBestelbus, VehicleBakwagen:
		return true
	}
	return false
}

// Address описывает адрес забора или доставки.
type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country,omitempty"`
}

// Order описывает заказ в том виде, в каком его отдаёт бэкенд.
type Order struct {
	ID              string      `json:"id"`
	TrackingNumber  string      `json:"tracking_number"`
	CustomerName    string      `json:"customer_name"`
	CustomerEmail   string      `json:"customer_email"`
	CustomerPhone   string      `json:"customer_phone,omitempty"`
	PickupAddress   Address     `json:"pickup_address"`
	DeliveryAddress Address     `json:"delivery_address"`
	VehicleType     VehicleType `json:"vehicle_type"`
	Status          OrderStatus `json:"status"`
	Price           float64     `json:"price"`
	Distance        *float64    `json:"distance,omitempty"`
	CourierName     *string     `json:"courier_name,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
}

// DashboardStats содержит сводку для панели администратора.
type DashboardStats struct {
	TotalOrders         int      `json:"total_orders"`
	OrdersToday         int      `json:"orders_today"`
	RevenueToday        float64  `json:"revenue_today"`
	RevenueMonth        float64  `json:"revenue_month"`
	ActiveCouriers      int      `json:"active_couriers"`
	PendingOrders       int      `json:"pending_orders"`
	CompletedOrders     int      `json:"completed_orders"`
	AverageDeliveryTime *float64 `json:"average_delivery_time,omitempty"`
}

// PriceQuote содержит рассчитанную бэкендом стоимость перевозки.
type PriceQuote struct {
	BasePrice     float64     `json:"base_price"`
	DistancePrice float64     `json:"distance_price"`
	TotalPrice    float64     `json:"total_price"`
	EstimatedTime string      `json:"estimated_time"`
	Distance      float64     `json:"distance"`
	VehicleType   VehicleType `json:"vehicle_type"`
}

// NotificationVariant задаёт оформление уведомления.
type NotificationVariant string

const (
	VariantDefault     NotificationVariant = "default"
	VariantDestructive NotificationVariant = "destructive"
)

// Notification описывает кратковременное сообщение для пользователя.
type Notification struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Variant     NotificationVariant `json:"variant"`
}
