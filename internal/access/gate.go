package access

import (
	"context"
	"strings"
)

// Gate отвечает, может ли actorID выполнять административные операции
// над очередью или списком тем предмета subjectID.
type Gate interface {
	IsAdmin(ctx context.Context, actorID, subjectID string) bool
}

// GateFunc позволяет передать функцию как Gate.
type GateFunc func(ctx context.Context, actorID, subjectID string) bool

func (f GateFunc) IsAdmin(ctx context.Context, actorID, subjectID string) bool {
	return f(ctx, actorID, subjectID)
}

// Allowlist — Gate на основе списков из конфигурации: глобальные администраторы
// и администраторы отдельных предметов (ассистенты).
type Allowlist struct {
	global    map[string]struct{}
	bySubject map[string]map[string]struct{}
}

// NewAllowlist принимает глобальные id и карту subject -> "id1|id2".
func NewAllowlist(global []string, subjects map[string]string) *Allowlist {
	a := &Allowlist{
		global:    make(map[string]struct{}),
		bySubject: make(map[string]map[string]struct{}),
	}
	for _, id := range global {
		if id = strings.TrimSpace(id); id != "" {
			a.global[id] = struct{}{}
		}
	}
	for subject, ids := range subjects {
		set := make(map[string]struct{})
		for _, id := range strings.Split(ids, "|") {
			if id = strings.TrimSpace(id); id != "" {
				set[id] = struct{}{}
			}
		}
		a.bySubject[strings.TrimSpace(subject)] = set
	}
	return a
}

func (a *Allowlist) IsAdmin(_ context.Context, actorID, subjectID string) bool {
	if actorID == "" {
		return false
	}
	if _, ok := a.global[actorID]; ok {
		return true
	}
	_, ok := a.bySubject[subjectID][actorID]
	return ok
}
