package utils

// PageResponse is the envelope every paginated listing returns.
type PageResponse[T any] struct {
	Items         []T   `json:"items"`
	NextPageToken int64 `json:"nextPageToken,omitempty"`
	ItemCount     int64 `json:"itemCount"`
}

func NewPageResponse[T any]() *PageResponse[T] {
	return &PageResponse[T]{}
}

func (pr *PageResponse[T]) WithItems(items []T) *PageResponse[T] {
	pr.Items = items
	return pr
}

// WithNextPageFrom records the total count and derives the next page
// token from the request, omitting it on the last page.
func (pr *PageResponse[T]) WithNextPageFrom(page PageRequest, itemCount int64) *PageResponse[T] {
	pr.ItemCount = itemCount
	if int(itemCount) > (page.Token+1)*page.Size {
		pr.NextPageToken = int64(page.Token + 1)
	}
	return pr
}

func (pr *PageResponse[T]) Build() *PageResponse[T] {
	return pr
}
