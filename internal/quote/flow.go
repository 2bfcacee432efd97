// Package quote реализует расчёт стоимости перевозки для публичной страницы.
package quote

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/geleverd/geleverd-web/internal/backend"
	"github.com/geleverd/geleverd-web/internal/model"
)

// ErrCalculating возвращается, пока предыдущий расчёт не завершён.
var ErrCalculating = errors.New("price calculation already in progress")

// Calculator описывает источник расчёта цены.
type Calculator interface {
	CalculatePrice(ctx context.Context, pickup, delivery string, vehicle model.VehicleType) (*model.PriceQuote, error)
}

// Request содержит введённые пользователем данные.
type Request struct {
	PickupAddress   string            `json:"pickup_address"`
	DeliveryAddress string            `json:"delivery_address"`
	VehicleType     model.VehicleType `json:"vehicle_type"`
}

// Result содержит уведомление для пользователя и, при успехе, полученную цену.
type Result struct {
	Notification model.Notification `json:"notification"`
	Quote        *model.PriceQuote  `json:"quote,omitempty"`
}

// Flow допускает не более одного расчёта одновременно.
type Flow struct {
	calc        Calculator
	logger      *zap.Logger
	calculating atomic.Bool
}

// NewFlow создаёт сценарий расчёта цены.
func NewFlow(calc Calculator, logger *zap.Logger) *Flow {
	return &Flow{calc: calc, logger: logger}
}

// Calculating сообщает, выполняется ли сейчас расчёт.
func (f *Flow) Calculating() bool {
	return f.calculating.Load()
}

// Submit проверяет ввод и запрашивает цену. Возвращаемая ошибка классифицирует исход:
// ValidationError при неполном вводе, ErrCalculating при повторной отправке, иначе ошибка бэкенда.
// Уведомление заполнено во всех случаях.
func (f *Flow) Submit(ctx context.Context, req Request) (Result, error) {
	pickup := strings.TrimSpace(req.PickupAddress)
	delivery := strings.TrimSpace(req.DeliveryAddress)
	vehicle := model.VehicleType(strings.TrimSpace(string(req.VehicleType)))

	if err := validate(pickup, delivery, vehicle); err != nil {
		f.logger.Debug("quote validation failed", zap.Error(err))
		return Result{Notification: validationNotification()}, err
	}

	if !f.calculating.CompareAndSwap(false, true) {
		return Result{Notification: busyNotification()}, ErrCalculating
	}
	defer f.calculating.Store(false)

	q, err := f.calc.CalculatePrice(ctx, pickup, delivery, vehicle)
	if err != nil {
		if backend.IsValidation(err) {
			return Result{Notification: validationNotification()}, err
		}
		f.logger.Error("price calculation error",
			zap.Error(err),
			zap.String("vehicle_type", string(vehicle)),
		)
		return Result{Notification: failureNotification()}, fmt.Errorf("calculate price: %w", err)
	}

	return Result{
		Notification: successNotification(q),
		Quote:        q,
	}, nil
}

func validate(pickup, delivery string, vehicle model.VehicleType) error {
	switch {
	case pickup == "":
		return &backend.ValidationError{Field: "pickup_address"}
	case delivery == "":
		return &backend.ValidationError{Field: "delivery_address"}
	case vehicle == "", !vehicle.Valid():
		return &backend.ValidationError{Field: "vehicle_type"}
	}
	return nil
}

func validationNotification() model.Notification {
	return model.Notification{
		Title:       "Vul alle velden in",
		Description: "Vul beide adressen in en selecteer een voertuig",
		Variant:     model.VariantDestructive,
	}
}

func busyNotification() model.Notification {
	return model.Notification{
		Title:       "Even geduld",
		Description: "De prijs wordt al berekend",
		Variant:     model.VariantDefault,
	}
}

func failureNotification() model.Notification {
	return model.Notification{
		Title:       "Fout bij berekening",
		Description: "Er ging iets mis bij het berekenen van de prijs. Probeer opnieuw.",
		Variant:     model.VariantDestructive,
	}
}

func successNotification(q *model.PriceQuote) model.Notification {
	return model.Notification{
		Title: "Transportprijs berekend!",
		Description: "Geschatte prijs: €" + strconv.FormatFloat(q.TotalPrice, 'f', -1, 64) +
			" - Geschatte tijd: " + q.EstimatedTime,
		Variant: model.VariantDefault,
	}
}
