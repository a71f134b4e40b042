package program

import (
	"github.com/l3aro/go-sdg/pkg/graph"
)

// Report is the serializable snapshot of a dependence graph after the finders
// have run and movable actions have been relocated.
type Report struct {
	Nodes []ReportNode `json:"nodes" yaml:"nodes" msgpack:"nodes"`
	Edges []ReportEdge `json:"edges" yaml:"edges" msgpack:"edges"`
}

// ReportNode is one graph node with its action sequence flattened to plain
// data.
type ReportNode struct {
	ID      int            `json:"id" yaml:"id" msgpack:"id"`
	Kind    string         `json:"kind" yaml:"kind" msgpack:"kind"`
	Label   string         `json:"label" yaml:"label" msgpack:"label"`
	Actions []ReportAction `json:"actions,omitempty" yaml:"actions,omitempty" msgpack:"actions"`
}

// ReportAction is one variable action. Fields lists the dotted object-tree
// paths the action touches.
type ReportAction struct {
	Kind   string   `json:"kind" yaml:"kind" msgpack:"kind"`
	Name   string   `json:"name" yaml:"name" msgpack:"name"`
	Fields []string `json:"fields,omitempty" yaml:"fields,omitempty" msgpack:"fields"`
}

// ReportEdge is one data-dependency edge between graph nodes.
type ReportEdge struct {
	From int `json:"from" yaml:"from" msgpack:"from"`
	To   int `json:"to" yaml:"to" msgpack:"to"`
}

// BuildReport flattens the graph into a Report.
func BuildReport(g *graph.Graph) *Report {
	r := &Report{}
	for _, n := range g.Nodes() {
		rn := ReportNode{ID: int(n.ID), Kind: string(n.Kind), Label: n.Label}
		for _, a := range n.Actions {
			rn.Actions = append(rn.Actions, ReportAction{
				Kind:   string(a.EffectiveKind()),
				Name:   a.Name(),
				Fields: a.Tree().Fields(),
			})
		}
		r.Nodes = append(r.Nodes, rn)
	}
	for _, e := range g.Edges() {
		r.Edges = append(r.Edges, ReportEdge{From: int(e.From), To: int(e.To)})
	}
	return r
}
