package transport

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// SweetRequest carries only the backend fields. Price is a pointer so a missing price is rejected.
type SweetRequest struct {
	Name        string   `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
}

type QuantityRequest struct {
	Quantity int `json:"quantity"`
}

type PurchaseResponse struct {
	SweetID     uint    `json:"sweetId"`
	SweetName   string  `json:"sweetName"`
	TotalAmount float64 `json:"totalAmount"`
	Quantity    int     `json:"quantity"`
}

type OrderRequest struct {
	CustomerName string   `json:"customerName"`
	TotalAmount  *float64 `json:"totalAmount"`
}

type InventoryRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       *float64 `json:"price"`
	Quantity    *int     `json:"quantity"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
