package llm

import (
	"fmt"
	"strconv"
)

const systemPrompt = `You are a symbolic math solver that answers with a single JSON object and nothing else.
Every JSON value is a LaTeX string.

Follow the requested response_type:
- "minimal": give only the final results.
- "full": also list the derivation in "steps".

When graphable output is requested, the solution must be graphable:
- curve: parametric (x(t), y(t), z(t)) or implicit F(x,y,z)=0
- surface: explicit z=f(x,y), implicit F(x,y,z)=0, or parametric (x(u,v), y(u,v), z(u,v))
Give parameter domains for graphing whenever possible.

A derivation states the problem, defines its symbols and assumptions, shows the key
transformations with intermediate equations, and ends with the solution in standard form
together with the domain where it is valid.

Do not write prose or Markdown outside the JSON object.
Escape backslashes in LaTeX inside JSON strings (for example "\\sin", "\\in").
`

const minimalSchema = `{
  "response_type": "minimal",
  "input": "<latex>",
  "solution": "<latex>",
  "graph_type": "<curve|surface|implicit|none>",
  "graph": "<latex or empty>",
  "parameters": "<latex or empty>",
  "domains": "<latex or empty>",
  "not_graphable": "<latex or empty>"
}`

const fullSchema = `{
  "response_type": "full",
  "input": "<latex>",
  "steps": ["<latex>", "<latex>", ...],
  "solution": "<latex>",
  "graph_type": "<curve|surface|implicit|none>",
  "graph": "<latex or empty>",
  "parameters": "<latex or empty>",
  "domains": "<latex or empty>",
  "not_graphable": "<latex or empty>"
}`

const minimalExample = `{
  "response_type": "minimal",
  "input": "x^2 + y^2 + z^2 = 1",
  "solution": "z = \\sqrt{1-x^2-y^2}",
  "graph_type": "surface",
  "graph": "z = \\sqrt{1-x^2-y^2}",
  "parameters": "",
  "domains": "x^2 + y^2 \\le 1",
  "not_graphable": ""
}`

const fullExample = `{
  "response_type": "full",
  "input": "y'' + y = 0,\\; y(0)=0,\\; y'(0)=1",
  "steps": [
    "\\text{Characteristic equation: } r^2 + 1 = 0",
    "r = \\pm i",
    "y = A\\cos(x) + B\\sin(x)",
    "\\text{Apply } y(0)=0 \\text{ and } y'(0)=1: A = 0,\\; B = 1"
  ],
  "solution": "y = \\sin(x)",
  "graph_type": "curve",
  "graph": "(x, \\sin(x), 0)",
  "parameters": "",
  "domains": "x \\in [0, 2\\pi]",
  "not_graphable": ""
}`

// SystemPrompt is the default system prompt for Ask.
func SystemPrompt() string { return systemPrompt }

// RequestPrompt renders the user prompt for req.
func RequestPrompt(req AskRequest) string {
	schema, example := minimalSchema, minimalExample
	if req.ResponseType == ResponseFull {
		schema, example = fullSchema, fullExample
	}
	graphDim := "null"
	if req.GraphDim > 0 {
		graphDim = strconv.Itoa(req.GraphDim)
	}
	return fmt.Sprintf(`Return JSON with all values as LaTeX strings. Use the provided response_type.

Input:
- response_type: %s
- problem_latex: %s
- wants_graph: %t
- graph_dim: %s

Schema:
%s

Example:
%s
`, req.ResponseType, req.Problem, req.WantsGraph, graphDim, schema, example)
}
