package models

// Collection представляет HAL-коллекцию API с элементами типа T
type Collection[T any] struct {
	Embedded struct {
		Elements []T `json:"elements"`
	} `json:"_embedded"`

	Total    int `json:"total"`
	Count    int `json:"count"`
	PageSize int `json:"pageSize"`
	Offset   int `json:"offset"`

	Links struct {
		Self Link `json:"self"`

		NextByOffset *Link `json:"nextByOffset,omitempty"`
	} `json:"_links"`
}

// WorkPackageResponse представляет ответ API с задачами
type WorkPackageResponse = Collection[WorkPackage]
