package catalog

// ImportResponse reports the catalog size after a bundle import. When the
// catalog was already seeded Count is the existing row count.
type ImportResponse struct {
	Count int64 `json:"count"`
}

// CountResponse holds the active medicine count
type CountResponse struct {
	Count int64 `json:"count"`
}
