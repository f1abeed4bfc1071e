package types

// JSONMap stores a free-form JSON object column.
type JSONMap map[string]any
