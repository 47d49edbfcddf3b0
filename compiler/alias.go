package compiler

import "fmt"

/*
   Alias allocation.

   The target dialect has no user-defined identifiers, only fixed storage
   slots per type. Each declared variable is mapped onto the next free slot
   of its type's bucket. Buckets never shrink: a slot is issued at most once
   per compilation and there is no freeing. A fresh Allocator starts every
   bucket at zero.
*/

const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// aliasCapacity is the fixed size of each bucket.
var aliasCapacity = map[Type]int{
	TypeNumber:  26,
	TypeString:  10,
	TypeList:    6,
	TypeMatrix:  26,
	TypeYVar:    10,
	TypePicture: 10,
	TypeGDB:     10,
}

// Allocator hands out slot tokens per type, in order.
type Allocator struct {
	next map[Type]int
}

func NewAllocator() *Allocator {
	return &Allocator{next: make(map[Type]int)}
}

// Allocate returns the next free slot token for t, or an error once the
// bucket is exhausted. Exhaustion is a hard error, not a degraded result.
func (a *Allocator) Allocate(t Type) (string, *CompileError) {
	capacity, ok := aliasCapacity[t]
	if !ok {
		return "", errf(ErrDataType, 1, "type %s has no storage slots and cannot be declared", t)
	}
	i := a.next[t]
	if i >= capacity {
		return "", errf(ErrDataType, 1, "max aliases reached for type %s (capacity %d)", t, capacity)
	}
	a.next[t] = i + 1
	return slotToken(t, i), nil
}

// Used reports how many slots of t have been issued.
func (a *Allocator) Used(t Type) int {
	return a.next[t]
}

func slotToken(t Type, i int) string {
	switch t {
	case TypeNumber:
		return string(letters[i])
	case TypeString:
		return fmt.Sprintf("Str%d", i)
	case TypeList:
		return fmt.Sprintf("L%d", i+1)
	case TypeMatrix:
		return "[" + string(letters[i]) + "]"
	case TypeYVar:
		return fmt.Sprintf("Y%d", i)
	case TypePicture:
		return fmt.Sprintf("Pic%d", i)
	case TypeGDB:
		return fmt.Sprintf("GDB%d", i)
	}
	return ""
}
