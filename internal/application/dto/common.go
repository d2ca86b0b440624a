package dto

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code             string   `json:"code"`
	Message          string   `json:"message"`
	Details          []string `json:"details,omitempty"`
	RestrictedFields []string `json:"restrictedFields,omitempty"`
}

// MessageResponse respuesta simple con mensaje.
type MessageResponse struct {
	Message string `json:"message"`
}
