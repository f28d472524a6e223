package sweetclient

import "strings"

const (
	CategoryAll     = "all"
	DefaultCategory = "mithai"
	DefaultImage    = "https://images.unsplash.com/photo-1666190020429-9c0d0d57d4de?w=400&h=300&fit=crop"
)

var Categories = []string{CategoryAll, "mithai", "ladoo", "barfi", "halwa", "namkeen"}

// SweetItem is what the backend stores and returns.
type SweetItem struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Price       float64 `json:"price"`
}

// Sweet is the catalog view of a SweetItem. Quantity, Category, Image and Origin
// exist only on the client; a nil Quantity means the stock is unknown.
type Sweet struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Price       float64 `json:"price"`

	Quantity *int   `json:"quantity,omitempty"`
	Category string `json:"category,omitempty"`
	Image    string `json:"image,omitempty"`
	Origin   string `json:"origin,omitempty"`
}

type PurchaseResult struct {
	SweetID     int64   `json:"sweetId"`
	SweetName   string  `json:"sweetName"`
	TotalAmount float64 `json:"totalAmount"`
	Quantity    int     `json:"quantity"`
}

func ToSweet(item SweetItem) Sweet {
	return Sweet{
		ID:          item.ID,
		Name:        item.Name,
		Description: normalizeDescription(item.Description),
		Price:       item.Price,
		Category:    DefaultCategory,
		Image:       DefaultImage,
	}
}

// ToSweetItem keeps the backend fields only.
func ToSweetItem(s Sweet) SweetItem {
	return SweetItem{
		ID:          s.ID,
		Name:        s.Name,
		Description: normalizeDescription(s.Description),
		Price:       s.Price,
	}
}

// sweetPayload is the create/update body. It has no id and no client-only fields.
type sweetPayload struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Price       float64 `json:"price"`
}

func payloadOf(item SweetItem) sweetPayload {
	return sweetPayload{Name: item.Name, Description: item.Description, Price: item.Price}
}

func normalizeDescription(d *string) *string {
	if d == nil || strings.TrimSpace(*d) == "" {
		return nil
	}
	v := *d
	return &v
}
