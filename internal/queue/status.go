package queue

import (
	"defense_queue/internal/apperr"
	"defense_queue/internal/models"
)

// applyTransition меняет статус записи по графу:
//
//	waiting -> preparing -> defending -> completed | failed
//	failed -> waiting, пока attempts < maxAttempts (attempts++)
//	любой нетерминальный -> skipped, skipped -> waiting
//	(пропуск после failed возвращается в waiting по правилам failed -> waiting)
//
// Терминальные: completed и failed с исчерпанными попытками.
func applyTransition(e *models.QueueEntry, to models.Status, maxAttempts int) error {
	from := e.Status
	if from == models.StatusCompleted || e.Exhausted(maxAttempts) {
		return apperr.ErrInvalidTransition.WithMessage("статус %s окончательный", from)
	}

	ok := false
	switch to {
	case models.StatusSkipped:
		ok = from != models.StatusSkipped
	case models.StatusPreparing:
		ok = from == models.StatusWaiting
	case models.StatusDefending:
		ok = from == models.StatusPreparing
	case models.StatusCompleted, models.StatusFailed:
		ok = from == models.StatusDefending
	case models.StatusWaiting:
		ok = from == models.StatusFailed || from == models.StatusSkipped
	}
	if !ok {
		return apperr.ErrInvalidTransition.WithMessage("переход %s -> %s запрещён", from, to)
	}

	retry := to == models.StatusWaiting &&
		(from == models.StatusFailed || (from == models.StatusSkipped && e.SkippedFrom == models.StatusFailed))
	if retry {
		if e.Attempts >= maxAttempts {
			return apperr.ErrInvalidTransition.WithMessage("попытки исчерпаны (%d из %d)", e.Attempts, maxAttempts)
		}
		e.Attempts++
	}

	if to == models.StatusSkipped {
		e.SkippedFrom = from
	} else {
		e.SkippedFrom = ""
	}
	e.Status = to
	return nil
}
