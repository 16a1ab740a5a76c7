package models

type Todo struct {
	ID    int64  `json:"id"`    // Primary key
	Title string `json:"title"` // Never empty
	Done  int    `json:"done"`  // 0 or 1
}

// TodoPatch holds the fields of a partial update; nil keeps the stored value.
type TodoPatch struct {
	Title *string `json:"title"`
	Done  *int    `json:"done"`
}
