package apperr

import (
	"errors"
	"fmt"
)

// Kind — категория ошибки движка, по ней транспорт выбирает HTTP-статус.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindConflict
	KindForbidden
	KindInvalidArgument
	KindInvalidTransition
	KindLimitExceeded
	KindDisabled
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindConflict:
		return "Conflict"
	case KindForbidden:
		return "Forbidden"
	case KindInvalidArgument:
		return "InvalidArgument"
	case KindInvalidTransition:
		return "InvalidTransition"
	case KindLimitExceeded:
		return "LimitExceeded"
	case KindDisabled:
		return "Disabled"
	default:
		return "Internal"
	}
}

// Error — типизированная ошибка: Kind для программной обработки,
// Code — стабильный код для клиента (как в response.ErrorResponse).
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is сравнивает по коду, чтобы errors.Is(err, apperr.ErrSlotOccupied) работал
// и для копий с уточнённым сообщением.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithMessage возвращает копию ошибки с другим текстом.
func (e *Error) WithMessage(format string, args ...any) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Message: fmt.Sprintf(format, args...)}
}

func newError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

var (
	// Очередь
	ErrQueueNotFound     = newError(KindNotFound, "QUEUE_NOT_FOUND", "Очередь не найдена")
	ErrQueueClosed       = newError(KindDisabled, "QUEUE_CLOSED", "Очередь закрыта")
	ErrSlotOutOfRange    = newError(KindInvalidArgument, "SLOT_OUT_OF_RANGE", "Место вне допустимого диапазона")
	ErrSlotAboveCeiling  = newError(KindLimitExceeded, "SLOT_OUT_OF_RANGE", "Место выше текущего лимита очереди")
	ErrSlotOccupied      = newError(KindConflict, "SLOT_OCCUPIED", "Место уже занято")
	ErrAlreadyInQueue    = newError(KindConflict, "ALREADY_IN_QUEUE", "Пользователь уже состоит в этой очереди")
	ErrNotInQueue        = newError(KindNotFound, "NOT_IN_QUEUE", "Активная запись в очереди не найдена")
	ErrInvalidLabNumber  = newError(KindInvalidArgument, "INVALID_LAB_NUMBER", "Номер лабораторной должен быть положительным")
	ErrInvalidStatus     = newError(KindInvalidArgument, "INVALID_STATUS", "Неизвестный статус")
	ErrInvalidTransition = newError(KindInvalidTransition, "INVALID_TRANSITION", "Недопустимая смена статуса")
	ErrMoveDisabled      = newError(KindDisabled, "MOVE_DISABLED", "Перемещение запрещено настройками очереди")
	ErrInvalidConfig     = newError(KindInvalidArgument, "INVALID_CONFIG", "Некорректные настройки очереди")
	ErrConfigConflict    = newError(KindConflict, "CONFIG_CONFLICT", "Нельзя уменьшить число мест ниже занятых")

	// Темы
	ErrTopicsNotCreated  = newError(KindNotFound, "TOPICS_NOT_CREATED", "Список тем ещё не создан")
	ErrTopicsExist       = newError(KindConflict, "TOPICS_ALREADY_EXIST", "Список тем уже создан")
	ErrInvalidMaxTopics  = newError(KindInvalidArgument, "INVALID_MAX_TOPICS", "Количество тем должно быть от 1 до 100")
	ErrTopicOutOfRange   = newError(KindInvalidArgument, "TOPIC_OUT_OF_RANGE", "Номер темы вне диапазона")
	ErrTopicTaken        = newError(KindConflict, "TOPIC_TAKEN", "Тема уже занята")
	ErrClaimLimitReached = newError(KindLimitExceeded, "CLAIM_LIMIT_REACHED", "Достигнут лимит занятых тем")
	ErrTopicFree         = newError(KindNotFound, "TOPIC_FREE", "Тема никем не занята")
	ErrNotOwner          = newError(KindForbidden, "NOT_OWNER", "Тема занята другим пользователем")

	// Общие
	ErrForbidden        = newError(KindForbidden, "FORBIDDEN", "Недостаточно прав")
	ErrInvalidUserID    = newError(KindInvalidArgument, "INVALID_USER_ID", "Не указан идентификатор пользователя")
	ErrInvalidSubjectID = newError(KindInvalidArgument, "INVALID_SUBJECT_ID", "Не указан предмет")
)

// KindOf извлекает Kind из цепочки ошибок; всё нетипизированное — KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
