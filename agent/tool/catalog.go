package tool

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Jacobs-Plumbing-Call-Agent/agent/contract"
)

const (
	ToolCheckCoverage     = "check_coverage"
	ToolGetAvailableSlots = "get_available_slots"
	ToolBookAppointment   = "book_appointment"
)

type Param struct {
	Name string
	Type string
	Desc string
}

// Spec describes a tool to the model. Every param is required.
type Spec struct {
	Name   string
	Desc   string
	Params []Param
}

type handler func(ctx context.Context, args map[string]any) (any, error)

// Catalog is the static tool table. It implements contract.ToolGateway.
type Catalog struct {
	specs    []Spec
	handlers map[string]handler
	slots    *SlotStore
	ledger   *Ledger
}

var _ contractx.ToolGateway = (*Catalog)(nil)

func NewCatalog(slots *SlotStore, ledger *Ledger) *Catalog {
	if slots == nil {
		slots = NewSlotStore(nil)
	}
	if ledger == nil {
		ledger = NewLedger()
	}
	c := &Catalog{
		specs:  Specs(),
		slots:  slots,
		ledger: ledger,
	}
	c.handlers = map[string]handler{
		ToolCheckCoverage:     c.checkCoverage,
		ToolGetAvailableSlots: c.getAvailableSlots,
		ToolBookAppointment:   c.bookAppointment,
	}
	return c
}

func Specs() []Spec {
	return []Spec{
		{
			Name: ToolCheckCoverage,
			Desc: "Check whether the service address is inside the service area.",
			Params: []Param{
				{Name: "address", Type: "string", Desc: "Full service address"},
			},
		},
		{
			Name: ToolGetAvailableSlots,
			Desc: "List open appointment slots for the service address.",
			Params: []Param{
				{Name: "address", Type: "string", Desc: "Full service address"},
			},
		},
		{
			Name: ToolBookAppointment,
			Desc: "Book one of the offered slots once the customer confirmed every detail.",
			Params: []Param{
				{Name: "name", Type: "string", Desc: "Customer full name"},
				{Name: "address", Type: "string", Desc: "Full service address"},
				{Name: "phone", Type: "string", Desc: "Callback phone number"},
				{Name: "email", Type: "string", Desc: "Customer email"},
				{Name: "service_request", Type: "string", Desc: "Plumbing problem to fix"},
				{Name: "slot", Type: "string", Desc: "Exact slot string returned by get_available_slots"},
			},
		},
	}
}

func (c *Catalog) Specs() []Spec {
	return c.specs
}

func (c *Catalog) Slots() *SlotStore {
	return c.slots
}

func (c *Catalog) Ledger() *Ledger {
	return c.ledger
}

// Execute runs the named tool. Unknown tools and bad arguments come back as
// error payloads so the model can correct itself.
func (c *Catalog) Execute(ctx context.Context, req contractx.ToolRequest) contractx.ToolResult {
	fn, ok := c.handlers[req.Tool]
	if !ok {
		log.Warn().Str("tool", req.Tool).Msg("model requested unknown tool")
		return contractx.ToolResult{
			Tool:  req.Tool,
			Error: fmt.Sprintf("Unknown tool: %s", req.Tool),
		}
	}

	out, err := fn(ctx, req.Args)
	if err != nil {
		log.Warn().Err(err).Str("tool", req.Tool).Interface("args", req.Args).Msg("tool rejected arguments")
		got := req.Args
		if got == nil {
			got = map[string]any{}
		}
		return contractx.ToolResult{
			Tool:  req.Tool,
			Error: fmt.Sprintf("Bad args for %s", req.Tool),
			Got:   got,
		}
	}

	log.Debug().Str("tool", req.Tool).Interface("result", out).Msg("tool executed")
	return contractx.ToolResult{Tool: req.Tool, Result: out}
}

// decodeArgs fills out from args, rejecting missing or unexpected keys and
// mistyped values.
func decodeArgs(args map[string]any, spec Spec, out any) error {
	for _, p := range spec.Params {
		if _, ok := args[p.Name]; !ok {
			return fmt.Errorf("%w: missing argument %q", contractx.ErrValidation, p.Name)
		}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      out,
		TagName:     "json",
		ErrorUnused: true,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(args); err != nil {
		return fmt.Errorf("%w: %v", contractx.ErrValidation, err)
	}
	return nil
}

func (c *Catalog) spec(name string) Spec {
	for _, s := range c.specs {
		if s.Name == name {
			return s
		}
	}
	return Spec{Name: name}
}

// Describe renders the catalog for the system prompt.
func Describe(specs []Spec) string {
	var b strings.Builder
	for i, s := range specs {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "- %s: %s\n", s.Name, s.Desc)
		example := make([]string, 0, len(s.Params))
		for _, p := range s.Params {
			fmt.Fprintf(&b, "    %s (%s): %s\n", p.Name, p.Type, p.Desc)
			example = append(example, fmt.Sprintf("%q: \"...\"", p.Name))
		}
		fmt.Fprintf(&b, "    usage: CALL: %s {%s}", s.Name, strings.Join(example, ", "))
	}
	return b.String()
}
