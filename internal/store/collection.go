package store

import (
	"encoding/json"
	"sync"
)

// Patch es un cambio parcial expresado con los nombres JSON de los campos.
// Se mezcla tal cual: claves desconocidas se ignoran y valores con tipo
// incorrecto dejan intacto el campo correspondiente.
type Patch map[string]any

// PatchFromJSON decodifica un registro crudo; devuelve nil si no es un objeto.
func PatchFromJSON(raw []byte) Patch {
	var p Patch
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil
	}
	return p
}

// mergePatch devuelve una copia profunda de item con patch aplicado.
func mergePatch[T any](item T, patch Patch) T {
	base, err := json.Marshal(item)
	if err != nil {
		return item
	}
	var merged T
	if err := json.Unmarshal(base, &merged); err != nil {
		return item
	}
	if len(patch) == 0 {
		return merged
	}
	raw, err := json.Marshal(patch)
	if err != nil {
		return merged
	}
	_ = json.Unmarshal(raw, &merged)
	return merged
}

func indexOf[T any](items []T, id string, idOf func(T) string) int {
	for i := range items {
		if idOf(items[i]) == id {
			return i
		}
	}
	return -1
}

func without[T any](items []T, id string, idOf func(T) string) []T {
	kept := make([]T, 0, len(items))
	for _, it := range items {
		if idOf(it) != id {
			kept = append(kept, it)
		}
	}
	return kept
}

func cloneSlice[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	out := make([]T, len(items))
	copy(out, items)
	return out
}

// listeners notifica a los suscriptores después de cada mutación.
type listeners struct {
	mu    sync.Mutex
	next  int
	funcs map[int]func()
}

// Subscribe registra fn y devuelve la función para darse de baja.
func (l *listeners) Subscribe(fn func()) func() {
	if fn == nil {
		return func() {}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.funcs == nil {
		l.funcs = make(map[int]func())
	}
	id := l.next
	l.next++
	l.funcs[id] = fn
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.funcs, id)
	}
}

// notify se llama sin el lock del store tomado.
func (l *listeners) notify() {
	l.mu.Lock()
	fns := make([]func(), 0, len(l.funcs))
	for _, fn := range l.funcs {
		fns = append(fns, fn)
	}
	l.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}
