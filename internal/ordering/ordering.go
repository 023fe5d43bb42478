// Package ordering computes display order keys for reordered sibling lists
// using the gap method: a moved item receives a key between its new
// neighbours and no other item is renumbered.
package ordering

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

// Gap is the distance left between an appended key and the current last key.
const Gap = 1000.0

var (
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrKeyExhausted    = errors.New("no order key left between neighbours")
	ErrKeyCollision    = errors.New("duplicate order key")
	ErrNotAscending    = errors.New("order keys not strictly ascending")
)

// Item is one entry of a sibling scope. Key defines its position.
type Item struct {
	ID  int64   `json:"id"`
	Key float64 `json:"order_key"`
}

// ComputeNewKey returns the key the item at source gets when it is moved to
// target. items must be sorted ascending by Key.
func ComputeNewKey(items []Item, target, source int) (float64, error) {
	if !inRange(items, source) || !inRange(items, target) {
		return 0, fmt.Errorf("move %d -> %d in list of %d: %w", source, target, len(items), ErrIndexOutOfRange)
	}
	if target == source {
		return items[source].Key, nil
	}

	last := len(items) - 1
	var key float64
	switch {
	case target == 0:
		first, ok := remainingKey(items, 0, source, 1)
		if !ok {
			first = Gap
		}
		key = first / 2
	case target >= last:
		tail, ok := remainingKey(items, last, source, -1)
		if !ok {
			tail = 0
		}
		key = tail + Gap
	case source < target:
		prev := items[target].Key
		next := prev + Gap
		if target+1 <= last {
			next = items[target+1].Key
		}
		key = (prev + next) / 2
	default:
		key = (items[target-1].Key + items[target].Key) / 2
	}

	if !fits(items, source, target, key) {
		return 0, fmt.Errorf("move item %d to index %d: %w", items[source].ID, target, ErrKeyExhausted)
	}
	return key, nil
}

// Reorder moves the item at from to index to and assigns it a new key.
// The input slice is left untouched; equal indices return a copy as is.
func Reorder(items []Item, from, to int) ([]Item, error) {
	if from == to {
		if !inRange(items, from) {
			return nil, fmt.Errorf("move %d -> %d in list of %d: %w", from, to, len(items), ErrIndexOutOfRange)
		}
		return slices.Clone(items), nil
	}

	key, err := ComputeNewKey(items, to, from)
	if err != nil {
		return nil, err
	}
	out := Move(items, from, to)
	out[to].Key = key
	return out, nil
}

// Move relocates the item at from to index to without touching any key.
// Indices must be in range.
func Move(items []Item, from, to int) []Item {
	out := slices.Clone(items)
	moved := out[from]
	out = slices.Delete(out, from, from+1)
	return slices.Insert(out, to, moved)
}

// Validate reports whether keys are unique and strictly ascending.
func Validate(items []Item) bool {
	return Check(items) == nil
}

// Check is Validate with the failing rule attached.
func Check(items []Item) error {
	seen := make(map[float64]int64, len(items))
	for i, it := range items {
		if math.IsNaN(it.Key) {
			return fmt.Errorf("item %d has NaN key: %w", it.ID, ErrNotAscending)
		}
		if other, ok := seen[it.Key]; ok {
			return fmt.Errorf("items %d and %d share key %v: %w", other, it.ID, it.Key, ErrKeyCollision)
		}
		seen[it.Key] = it.ID
		if i > 0 && !(it.Key > items[i-1].Key) {
			return fmt.Errorf("item %d key %v after %v: %w", it.ID, it.Key, items[i-1].Key, ErrNotAscending)
		}
	}
	return nil
}

// IndexOf returns the position of id in items, or -1.
func IndexOf(items []Item, id int64) int {
	return slices.IndexFunc(items, func(it Item) bool { return it.ID == id })
}

func inRange(items []Item, i int) bool {
	return i >= 0 && i < len(items)
}

// remainingKey returns items[idx].Key, stepping once over skip.
func remainingKey(items []Item, idx, skip, step int) (float64, bool) {
	if idx == skip {
		idx += step
	}
	if !inRange(items, idx) {
		return 0, false
	}
	return items[idx].Key, true
}

// fits checks key against the neighbours the moved item has after the move.
func fits(items []Item, source, target int, key float64) bool {
	if math.IsNaN(key) || math.IsInf(key, 0) {
		return false
	}
	rest := slices.Delete(slices.Clone(items), source, source+1)
	if target > 0 && !(key > rest[target-1].Key) {
		return false
	}
	if target < len(rest) && !(key < rest[target].Key) {
		return false
	}
	return true
}
