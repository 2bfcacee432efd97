package orderlist

import (
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/geleverd/geleverd-web/internal/model"
)

// NeutralColor используется для неизвестных статусов.
const NeutralColor = "gray"

var statusColors = map[model.OrderStatus]string{
	model.OrderStatusPending:   "yellow",
	model.OrderStatusConfirmed: "blue",
	model.OrderStatusPickedUp:  "purple",
	model.OrderStatusInTransit: "indigo",
	model.OrderStatusDelivered: "green",
	model.OrderStatusCancelled: "red",
}

// StatusColor возвращает цвет бейджа для статуса.
func StatusColor(status model.OrderStatus) string {
	if c, ok := statusColors[status]; ok {
		return c
	}
	return NeutralColor
}

// FormatStatus превращает "in_transit" в "In Transit".
// Заменяется только первый разделитель.
func FormatStatus(status model.OrderStatus) string {
	return titleCase(strings.Replace(string(status), "_", " ", 1))
}

// FormatVehicle возвращает название класса транспорта для отображения.
func FormatVehicle(v model.VehicleType) string {
	return titleCase(strings.Replace(string(v), "_", " ", 1))
}

func titleCase(s string) string {
	// Caser хранит состояние и не должен использоваться из нескольких горутин.
	return cases.Title(language.Dutch, cases.NoLower).String(s)
}

// DateLayout соответствует nl-NL: день-месяц-год часы:минуты.
const DateLayout = "02-01-2006 15:04"

// FormatDate форматирует момент времени в зоне, в которой он передан.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// FormatPrice выводит сумму в том виде, в каком её вернул бэкенд, без округления.
func FormatPrice(p float64) string {
	return "€" + strconv.FormatFloat(p, 'f', -1, 64)
}

// FormatDistance выводит расстояние в километрах или "N/A", если его нет.
func FormatDistance(d *float64) string {
	if d == nil || *d == 0 {
		return "N/A"
	}
	return strconv.FormatFloat(*d, 'f', -1, 64) + "km"
}

// FormatRoute выводит маршрут по городам.
func FormatRoute(o model.Order) string {
	return o.PickupAddress.City + " → " + o.DeliveryAddress.City
}

// Row описывает строку таблицы заказов, готовую к отображению.
type Row struct {
	ID             string `json:"id"`
	TrackingNumber string `json:"tracking_number"`
	CustomerName   string `json:"customer_name"`
	CustomerEmail  string `json:"customer_email"`
	Route          string `json:"route"`
	Distance       string `json:"distance"`
	Vehicle        string `json:"vehicle"`
	Price          string `json:"price"`
	Status         string `json:"status"`
	StatusLabel    string `json:"status_label"`
	StatusColor    string `json:"status_color"`
	Final          bool   `json:"final"`
	CreatedAt      string `json:"created_at"`
}

// Rows строит строки таблицы в порядке, заданном бэкендом. Даты выводятся в зоне loc.
func Rows(orders []model.Order, loc *time.Location) []Row {
	if loc == nil {
		loc = time.Local
	}

	rows := make([]Row, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, Row{
			ID:             o.ID,
			TrackingNumber: o.TrackingNumber,
			CustomerName:   o.CustomerName,
			CustomerEmail:  o.CustomerEmail,
			Route:          FormatRoute(o),
			Distance:       FormatDistance(o.Distance),
			Vehicle:        FormatVehicle(o.VehicleType),
			Price:          FormatPrice(o.Price),
			Status:         string(o.Status),
			StatusLabel:    FormatStatus(o.Status),
			StatusColor:    StatusColor(o.Status),
			Final:          o.Status.Terminal(),
			CreatedAt:      FormatDate(o.CreatedAt.In(loc)),
		})
	}
	return rows
}
