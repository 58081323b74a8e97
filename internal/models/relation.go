package models

// RelationTypes допустимые типы связей между задачами.
var RelationTypes = []string{"follows", "precedes", "blocks", "blocked", "relates", "duplicates", "duplicated"}

// Relation связь (зависимость) между двумя задачами.
type Relation struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	ReverseType string `json:"reverseType"`
	Description string `json:"description"`
	Lag         int    `json:"lag"`
	Links       struct {
		Self Link `json:"self"`
		From Link `json:"from"`
		To   Link `json:"to"`
	} `json:"_links"`
}
