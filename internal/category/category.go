package category

// Category is a distinct product category with the number of active products in it.
type Category struct {
	Name         string `json:"name"`
	Label        string `json:"label"`
	ProductCount int    `json:"productCount"`
}

var labels = map[string]string{
	"electronics": "전자제품",
	"clothing":    "의류",
	"books":       "도서",
	"food":        "식품",
	"sports":      "스포츠",
	"beauty":      "뷰티",
	"home":        "생활/가정",
}

// Label returns the display label for a category code; unknown codes are shown as-is.
func Label(name string) string {
	if name == "" {
		return "기타"
	}
	if l, ok := labels[name]; ok {
		return l
	}
	return name
}
