package plugin

import "github.com/statusrelay/statusrelay/internal/service"

// Names exposed through the capability descriptor.
const (
	Namespace = "ext-rs-service-status"

	OpGetServiceStatus              = "getServiceStatus"
	OpGetEnumServices               = "getEnumServices"
	OpServiceStatusForEnumServiceID = "serviceStatusForEnumServiceId"

	EnumServiceID = "ServiceId"
)

// Capability is the descriptor returned for action "info".
type Capability struct {
	NS        string              `json:"ns"`
	Title     string              `json:"title"`
	TagValues map[string]TagValue `json:"tagValues"`
	Tools     map[string]Tool     `json:"tools"`
}

// TagValue describes an enumerated value type and where its entries come from.
type TagValue struct {
	Icon                 string `json:"icon"`
	LoadEntriesHandlerID string `json:"loadEntriesHandlerId"`
}

// Tool describes one invocable operation.
type Tool struct {
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Schema         ToolSchema      `json:"schema"`
	UI             ToolUI          `json:"ui"`
	ContextActions []ContextAction `json:"contextActions"`
	Examples       []string        `json:"examples"`
}

// ToolSchema lists the parameters a tool accepts.
type ToolSchema struct {
	Fields map[string]Field `json:"fields"`
}

// Field is one tool parameter.
type Field struct {
	Type        string   `json:"type"`
	Enum        []string `json:"enum,omitempty"`
	Description string   `json:"description,omitempty"`
}

// ToolUI holds rendering hints for a tool.
type ToolUI struct {
	Prefix string           `json:"prefix"`
	Args   map[string]ArgUI `json:"args"`
}

// ArgUI holds rendering hints for one argument.
type ArgUI struct {
	Prefix    string `json:"prefix"`
	DTypeName string `json:"dtypeName"`
}

// ContextAction links an enum value type to the handler that resolves it.
type ContextAction struct {
	For     ContextTarget `json:"for"`
	Handler string        `json:"handler"`
}

// ContextTarget names the value type a context action applies to.
type ContextTarget struct {
	Name string `json:"name"`
}

// Describe builds the capability descriptor. The service enum is taken from reg.
func Describe(reg *service.Registry) Capability {
	return Capability{
		NS:    Namespace,
		Title: "Service Status",
		TagValues: map[string]TagValue{
			EnumServiceID: {Icon: "server", LoadEntriesHandlerID: OpGetEnumServices},
		},
		Tools: map[string]Tool{
			OpGetServiceStatus: {
				Title:       "Get Service Status",
				Description: "Check service API status to know if a service is up or down",
				Schema: ToolSchema{
					Fields: map[string]Field{
						"service": {
							Type:        "string",
							Enum:        reg.Keys(),
							Description: "the service to display the API status, if unknown default to " + reg.DefaultKey(),
						},
					},
				},
				UI: ToolUI{
					Prefix: "Service Status",
					Args: map[string]ArgUI{
						"service": {Prefix: "For", DTypeName: EnumServiceID},
					},
				},
				ContextActions: []ContextAction{
					{For: ContextTarget{Name: EnumServiceID}, Handler: OpServiceStatusForEnumServiceID},
				},
				Examples: []string{
					"Show status for snowflake",
					"Cloudflare service status",
					"Is twilio up?",
				},
			},
		},
	}
}
