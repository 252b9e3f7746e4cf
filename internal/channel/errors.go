package channel

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/shenikar/incident_dispatch/internal/models"
)

// Kind - класс ошибки доставки
type Kind int

const (
	// KindTransient - сеть, таймаут, лимит провайдера; повтор допустим
	KindTransient Kind = iota + 1
	// KindPermanent - плохой получатель, отказ в авторизации, битый запрос; без повторов
	KindPermanent
)

func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindPermanent:
		return "permanent"
	}
	return "unknown"
}

// DeliveryError - ошибка отправки через адаптер канала
type DeliveryError struct {
	Kind    Kind
	Channel models.Channel
	Detail  string
	Err     error
}

func (e *DeliveryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s delivery error: %s: %v", e.Kind, e.Channel, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s %s delivery error: %s", e.Kind, e.Channel, e.Detail)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Transient создает ошибку, которую можно повторить
func Transient(ch models.Channel, detail string, err error) *DeliveryError {
	return &DeliveryError{Kind: KindTransient, Channel: ch, Detail: detail, Err: err}
}

// Permanent создает ошибку, которую повторять нельзя
func Permanent(ch models.Channel, detail string, err error) *DeliveryError {
	return &DeliveryError{Kind: KindPermanent, Channel: ch, Detail: detail, Err: err}
}

// Classify приводит произвольную ошибку к DeliveryError.
// Неклассифицированные таймауты считаются временными, остальное - постоянным.
func Classify(ch models.Channel, err error) *DeliveryError {
	if err == nil {
		return nil
	}
	var de *DeliveryError
	if errors.As(err, &de) {
		return de
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Transient(ch, "timeout", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Transient(ch, "network timeout", err)
	}
	return Permanent(ch, "unclassified", err)
}

// IsTransient сообщает, стоит ли повторять отправку
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	return Classify("", err).Kind == KindTransient
}

// ConfigurationError - настройки канала отсутствуют или некорректны
type ConfigurationError struct {
	Channel models.Channel
	Reason  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s channel is not configured: %s", e.Channel, e.Reason)
}
