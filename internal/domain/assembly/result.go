package assembly

import (
	"encoding/json"
	"fmt"
)

// Result is either an assembled product or, as a parent, one of the inputs
// it was built from.
type Result struct {
	// Family decides which provenance key a product carries.
	Family Family
	// IsInput marks a leaf input; only Input and Data are meaningful.
	IsInput bool
	Input   string
	Data    map[string]interface{}

	Structure    string
	Parents      []Result
	ReactionTags []string
	InputSmiles  string
}

type inputLeafJSON struct {
	Input   string                 `json:"input"`
	IsInput bool                   `json:"is_input"`
	Data    map[string]interface{} `json:"data"`
}

type synthonDataJSON struct {
	Parents      []Result `json:"parents"`
	ReactionTags []string `json:"reaction_tags"`
}

type fragmentDataJSON struct {
	Parents     []Result `json:"parents"`
	InputSmiles string   `json:"input_smiles"`
}

type productJSON struct {
	Result       string      `json:"result"`
	IsInput      bool        `json:"is_input"`
	AssemblyData interface{} `json:"assembly_data"`
}

func (r Result) MarshalJSON() ([]byte, error) {
	if r.IsInput {
		data := r.Data
		if data == nil {
			data = map[string]interface{}{}
		}
		return json.Marshal(inputLeafJSON{Input: r.Input, IsInput: true, Data: data})
	}

	parents := r.Parents
	if parents == nil {
		parents = []Result{}
	}
	out := productJSON{Result: r.Structure}
	if r.Family == FamilyFragment {
		out.AssemblyData = fragmentDataJSON{Parents: parents, InputSmiles: r.InputSmiles}
	} else {
		tags := r.ReactionTags
		if tags == nil {
			tags = []string{}
		}
		out.AssemblyData = synthonDataJSON{Parents: parents, ReactionTags: tags}
	}
	return json.Marshal(out)
}

func (r *Result) UnmarshalJSON(data []byte) error {
	var wire struct {
		IsInput      bool                       `json:"is_input"`
		Input        string                     `json:"input"`
		Data         map[string]interface{}     `json:"data"`
		Result       string                     `json:"result"`
		AssemblyData map[string]json.RawMessage `json:"assembly_data"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	if wire.IsInput {
		*r = Result{IsInput: true, Input: wire.Input, Data: wire.Data}
		return nil
	}

	out := Result{Structure: wire.Result, Family: FamilySynthon}
	if raw, ok := wire.AssemblyData["parents"]; ok {
		if err := json.Unmarshal(raw, &out.Parents); err != nil {
			return fmt.Errorf("assembly_data.parents: %w", err)
		}
	}
	if raw, ok := wire.AssemblyData["input_smiles"]; ok {
		out.Family = FamilyFragment
		if err := json.Unmarshal(raw, &out.InputSmiles); err != nil {
			return fmt.Errorf("assembly_data.input_smiles: %w", err)
		}
	}
	if raw, ok := wire.AssemblyData["reaction_tags"]; ok {
		if err := json.Unmarshal(raw, &out.ReactionTags); err != nil {
			return fmt.Errorf("assembly_data.reaction_tags: %w", err)
		}
	}
	for i := range out.Parents {
		if !out.Parents[i].IsInput {
			out.Parents[i].Family = out.Family
		}
	}
	*r = out
	return nil
}

// Depth returns the number of assembly steps behind r; inputs have depth 0.
func (r Result) Depth() int {
	if r.IsInput {
		return 0
	}
	depth := 0
	for _, p := range r.Parents {
		if d := p.Depth(); d > depth {
			depth = d
		}
	}
	return depth + 1
}

//Personal.AI order the ending
