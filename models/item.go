package models

// Item is a single entry of a packing list. Position is the zero-based
// order index inside the list; the server keeps positions contiguous
// after every applied operation.
type Item struct {
	ItemID   string `json:"item_id"`
	Title    string `json:"title"`
	Quantity int    `json:"quantity"`
	Packed   bool   `json:"packed"`
	Position int    `json:"position"`
}
