package tts

// Chunk is one bounded-length slice of text submitted as a single synthesis
// unit. Index is 0-based and defines the order of the merged audio.
type Chunk struct {
	Index int
	Text  string
}

// Sentence terminators recognized by Split. The terminator stays attached to
// the clause it ends.
var terminators = map[rune]bool{
	'。': true,
	'，': true,
	'\n': true,
	'；': true,
	'！': true,
	'？': true,
}

// Split cuts text into ordered chunks of fewer than limit runes, greedily
// packing whole clauses. Content after the last terminator rides along with
// the final chunk. A single clause longer than limit is emitted as one
// oversized chunk rather than being subdivided; the provider tolerates
// mildly oversized requests and truncation would drop audible text.
//
// Split is a pure function: identical inputs always yield identical chunks.
func Split(text string, limit int) []Chunk {
	if text == "" {
		return nil
	}

	var chunks []Chunk
	var current, clause []rune

	flush := func() {
		if len(current) > 0 {
			chunks = append(chunks, Chunk{Index: len(chunks), Text: string(current)})
			current = nil
		}
	}

	for _, r := range text {
		clause = append(clause, r)
		if !terminators[r] {
			continue
		}
		if len(current)+len(clause) < limit {
			current = append(current, clause...)
		} else {
			flush()
			current = clause
		}
		clause = nil
	}

	// Trailing remainder joins the running chunk even if that overflows.
	current = append(current, clause...)
	flush()

	return chunks
}
