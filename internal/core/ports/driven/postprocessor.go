package driven

// TextChunk is the unit flowing through the post-processing pipeline before
// it becomes a persisted domain.Chunk.
type TextChunk struct {
	Content     string
	Position    int
	StartOffset int
	EndOffset   int
}

// PostProcessor transforms chunks during ingestion
type PostProcessor interface {
	// Process transforms the chunks
	Process(chunks []TextChunk) []TextChunk

	// Name returns the processor name
	Name() string

	// Order determines processing order (lower runs first)
	Order() int
}

// PostProcessorPipeline chains post-processors over raw document content
type PostProcessorPipeline interface {
	// Process splits and transforms raw content into chunks ready for
	// persistence and indexing
	Process(content string) []TextChunk

	// List returns processor names in order
	List() []string
}
