package domain

// MappedRoute is the Spring-Boot oriented reshaping of a Route consumed by the
// OpenAPI and mapped JSON backends.
type MappedRoute struct {
	Endpoint string       `json:"endpoint"`
	Steps    []MappedStep `json:"steps"`
}

// MappedStep carries the Spring-Boot field layout. The mapping sets every key
// its rule names, even to an empty string; nil keys are left out. Field order
// here is the JSON key order.
type MappedStep struct {
	Type            string           `json:"type,omitempty"`
	URI             *string          `json:"uri,omitempty"`
	Jaxb2Marshaller *Jaxb2Marshaller `json:"Jaxb2Marshaller,omitempty"`
	Annotations     []string         `json:"annotations,omitempty"`
	CustomBean      *string          `json:"customBean,omitempty"`
	Pattern         *string          `json:"pattern,omitempty"`
	HeaderName      *string          `json:"headerName,omitempty"`
	Constant        *string          `json:"constant,omitempty"`
	Message         *string          `json:"message,omitempty"`
	LoggingLevel    *string          `json:"loggingLevel,omitempty"`
}

// Jaxb2Marshaller holds the unmarshal settings. Absent values encode as null.
type Jaxb2Marshaller struct {
	Library           *string `json:"library"`
	UnmarshalTypeName *string `json:"unmarshalTypeName"`
}
