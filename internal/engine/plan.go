package engine

import "github.com/Ishaangg/conference-agent/internal/attendee"

// Batch is a contiguous slice of items processed as one unit.
type Batch struct {
	Index int
	// Offset is the position of the batch's first item in the planned list.
	Offset int
	Items  []attendee.Item
}

// PlanBatches splits items into ceil(len/size) contiguous batches. The last batch
// holds the remainder. Batches share the backing array of items.
func PlanBatches(items []attendee.Item, size int) []Batch {
	if len(items) == 0 || size <= 0 {
		return nil
	}

	count := (len(items) + size - 1) / size
	batches := make([]Batch, 0, count)
	for i := 0; i < count; i++ {
		start := i * size
		end := min(start+size, len(items))
		batches = append(batches, Batch{
			Index:  i,
			Offset: start,
			Items:  items[start:end:end],
		})
	}
	return batches
}
