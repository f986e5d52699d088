package compiler

import "github.com/BiAffectBridge/cairn/pkg/domain"

// nodeDocument is the transport shape of a node definition. It uses
// "mapstructure" tags so YAML documents decoded into generic maps and JSON
// documents share one decoding path.
type nodeDocument struct {
	Identifier       string `json:"identifier" mapstructure:"identifier"`
	Type             string `json:"type" mapstructure:"type"`
	ResultIdentifier string `json:"result_identifier" mapstructure:"result_identifier"`
	Comment          string `json:"comment" mapstructure:"comment"`
	Title            string `json:"title" mapstructure:"title"`
	Subtitle         string `json:"subtitle" mapstructure:"subtitle"`
	Detail           string `json:"detail" mapstructure:"detail"`

	HiddenButtons []string          `json:"hidden_buttons" mapstructure:"hidden_buttons"`
	Buttons       map[string]string `json:"buttons" mapstructure:"buttons"`

	NextNode string `json:"next_node" mapstructure:"next_node"`

	Children        []nodeDocument  `json:"children" mapstructure:"children"`
	ProgressMarkers []string        `json:"progress_markers" mapstructure:"progress_markers"`
	AsyncActions    []asyncDocument `json:"async_actions" mapstructure:"async_actions"`

	InputType    string   `json:"input_type" mapstructure:"input_type"`
	InputOptions []string `json:"input_options" mapstructure:"input_options"`
	Optional     bool     `json:"optional" mapstructure:"optional"`

	Version string `json:"version" mapstructure:"version"`
}

type asyncDocument struct {
	Identifier  string   `json:"identifier" mapstructure:"identifier"`
	Type        string   `json:"type" mapstructure:"type"`
	StartStep   string   `json:"start_step" mapstructure:"start_step"`
	StopStep    string   `json:"stop_step" mapstructure:"stop_step"`
	Permissions []string `json:"permissions" mapstructure:"permissions"`
}

func (d *nodeDocument) toDomain() *domain.Node {
	n := &domain.Node{
		Identifier:         d.Identifier,
		Kind:               d.Type,
		ResultIdentifier:   d.ResultIdentifier,
		Comment:            d.Comment,
		Title:              d.Title,
		Subtitle:           d.Subtitle,
		Detail:             d.Detail,
		HiddenButtons:      d.HiddenButtons,
		Buttons:            d.Buttons,
		NextNodeIdentifier: d.NextNode,
		ProgressMarkers:    d.ProgressMarkers,
		InputType:          d.InputType,
		InputOptions:       d.InputOptions,
		Optional:           d.Optional,
		Version:            d.Version,
	}
	for _, a := range d.AsyncActions {
		n.AsyncActions = append(n.AsyncActions, domain.AsyncActionConfig{
			Identifier:          a.Identifier,
			Type:                a.Type,
			StartStepIdentifier: a.StartStep,
			StopStepIdentifier:  a.StopStep,
			Permissions:         a.Permissions,
		})
	}
	for i := range d.Children {
		n.Children = append(n.Children, d.Children[i].toDomain())
	}
	return n
}
