package dispatch

import (
	"fmt"
	"strings"

	"github.com/gitrdm/availcore/values"
)

// ParsingInstruction is one step of a message bundle's parse plan. Each
// kind has its own effect on the BundleTree being expanded (spec.md
// §4.3's instruction table): ParsePart/ParsePartCaseInsensitive descend
// into a keyword edge, CheckArgument descends into the shared argument
// successor (and is where a grammatical restriction's prefilter entry
// gets planted, see BundleTree.Expand), and JumpBackward closes a cycle
// back to the plan's starting node for self-embedding grammars.
type ParsingInstruction int

const (
	InstrParsePart ParsingInstruction = iota
	InstrParsePartCaseInsensitive
	InstrCheckArgument
	InstrJumpBackward
)

// PartsToInstructions derives the default parse plan for a name already
// split into parts: each "_" placeholder becomes an argument check,
// every other token becomes an exact keyword match. A real module
// compiler would build richer plans directly (case-insensitive parts,
// recursive re-entry via InstrJumpBackward); this is the plan shape the
// simplest bundles, and tests, use.
func PartsToInstructions(parts []string) []ParsingInstruction {
	instrs := make([]ParsingInstruction, len(parts))
	for i, part := range parts {
		if part == "_" {
			instrs[i] = InstrCheckArgument
		} else {
			instrs[i] = InstrParsePart
		}
	}
	return instrs
}

// Restriction forbids bundle Excluded from supplying, unparenthesized,
// the argument at ArgIndex of the method whose bundle carries it — e.g.
// restricting "_+_"'s first argument to exclude "-_" so `-a+b` must be
// written `(-a)+b` (glossary: "grammatical restriction").
type Restriction struct {
	ArgIndex int
	Excluded *MessageBundle
}

// DefinitionParsingPlan is the token-by-token parse plan for one
// Definition of a bundle's method, consumed by BundleTree.Expand.
type DefinitionParsingPlan struct {
	Definition   Definition
	Instructions []ParsingInstruction
}

// MessageBundle names one message send shape: its defining atom, the
// keyword/underscore parts of its name, its restrictions, and the parse
// plans themselves (one per Definition, since macro/ordinary/forward
// definitions of the same name can in principle parse differently).
type MessageBundle struct {
	Atom         *values.Atom
	Parts        []string
	Restrictions []Restriction
	Plans        []DefinitionParsingPlan
	Method       *Method
}

func NewMessageBundle(atom *values.Atom, method *Method) *MessageBundle {
	return &MessageBundle{
		Atom:   atom,
		Parts:  strings.Split(atom.Name(), " "),
		Method: method,
	}
}

// AddRestriction appends r; restrictions are additive only during normal
// module load, but RemoveRestriction (the §3 supplement) undoes one for
// module unload.
func (b *MessageBundle) AddRestriction(r Restriction) {
	b.Restrictions = append(b.Restrictions, r)
}

// RemoveRestriction removes the first restriction matching argIndex and
// excluded exactly, reporting whether one was found.
func (b *MessageBundle) RemoveRestriction(argIndex int, excluded *MessageBundle) bool {
	for i, r := range b.Restrictions {
		if r.ArgIndex == argIndex && r.Excluded == excluded {
			b.Restrictions = append(b.Restrictions[:i], b.Restrictions[i+1:]...)
			return true
		}
	}
	return false
}

// planInProgress is one Definition's plan mid-expansion: which bundle
// and plan it belongs to, how far through Instructions it has gotten,
// how many CheckArgument steps it has already consumed (so a
// Restriction's ArgIndex lines up with the step actually being taken),
// and the node the plan started expanding from (origin), so a
// JumpBackward instruction has somewhere concrete to jump back to.
type planInProgress struct {
	bundle     *MessageBundle
	plan       DefinitionParsingPlan
	instrIndex int
	argsSeen   int
	origin     *BundleTree
}

// BundleTree is a lazily expanded trie over parsing instructions,
// mirroring the teacher's SLG GoalPattern.Expand shape: a node holds
// plans that have not yet been advanced (plansInProgress) plus the edges
// already derived from previously-expanded plans. Expand() is
// idempotent and incremental — it only consumes the plans currently
// queued, leaving already-derived edges untouched, the same
// expand-on-demand discipline the teacher's dcg.go uses for recursive
// nonterminals.
//
// prefilter maps an excluded bundle to the pruned successor a
// grammatical restriction installs for this node's argument position:
// consulted instead of the generic argument successor whenever the
// argument just parsed resolved to that excluded bundle.
type BundleTree struct {
	plansInProgress []planInProgress

	complete                  []*MessageBundle
	incomplete                map[string]*BundleTree
	incompleteCaseInsensitive map[string]*BundleTree
	actions                   map[ParsingInstruction][]*BundleTree
	prefilter                 map[*MessageBundle]*BundleTree
	typeFilter                *TypeFilterTree

	backJump        *BundleTree
	isSourceOfCycle bool
}

// TypeFilterTree is the shape of an optional narrowing of bundle tree
// edges by argument type (the §3 type-lattice supplement). BundleTree
// carries a typeFilter field of this type, but Expand never builds one
// and no lookup consults it.
type TypeFilterTree struct {
	ByType map[values.Type]*BundleTree
}

func NewBundleTree() *BundleTree {
	return &BundleTree{
		incomplete:                make(map[string]*BundleTree),
		incompleteCaseInsensitive: make(map[string]*BundleTree),
		actions:                   make(map[ParsingInstruction][]*BundleTree),
		prefilter:                 make(map[*MessageBundle]*BundleTree),
	}
}

// AddDefinition queues bundle's parse plan on this node for the next
// Expand call; it also publishes a MethodChanged event on bus
// so dependent Level-Two chunks invalidate (spec.md §4.3: "Both
// operations invalidate Level-Two chunks").
func (t *BundleTree) AddDefinition(bundle *MessageBundle, plan DefinitionParsingPlan, bus *DependencyBus) {
	t.plansInProgress = append(t.plansInProgress, planInProgress{bundle: bundle, plan: plan, origin: t})
	if bus != nil {
		bus.Publish(bundle.Method.ID)
	}
}

// RemoveDefinition removes bundle from this node's complete list and
// publishes a MethodChanged event for it on bus, the §3-supplemented
// inverse of AddDefinition used by module unload.
func (t *BundleTree) RemoveDefinition(bundle *MessageBundle, bus *DependencyBus) bool {
	for i, b := range t.complete {
		if b == bundle {
			t.complete = append(t.complete[:i], t.complete[i+1:]...)
			if bus != nil {
				bus.Publish(bundle.Method.ID)
			}
			return true
		}
	}
	return false
}

// AddRestriction records r on bundle and, per spec.md §4.3's Mutation
// rules, walks every already-expanded path of bundle's own plans up to
// the restricted argument position and plants the matching prefilter
// entry there. A plan that hasn't been expanded that far yet is left
// alone — Expand itself plants the prefilter the first time it advances
// that plan's CheckArgument step past r.ArgIndex (see the
// InstrCheckArgument case below), so no restriction is ever silently
// missed regardless of expansion order.
func (t *BundleTree) AddRestriction(bundle *MessageBundle, r Restriction, bus *DependencyBus) {
	bundle.AddRestriction(r)
	for _, plan := range bundle.Plans {
		if node := t.walkToArgument(bundle, plan, r.ArgIndex); node != nil {
			node.ensurePrefilter(r.Excluded, bundle)
		}
	}
	if bus != nil {
		bus.Publish(bundle.Method.ID)
	}
}

// walkToArgument follows already-built edges for plan's instructions,
// starting at t, and returns the node reached immediately before the
// argIndex-th CheckArgument step — i.e. the node whose argument
// successor is about to receive bundle's restricted argument. It
// returns nil if any edge the plan would need hasn't been expanded yet.
func (t *BundleTree) walkToArgument(bundle *MessageBundle, plan DefinitionParsingPlan, argIndex int) *BundleTree {
	cur := t
	argsSeen := 0
	for i, instr := range plan.Instructions {
		if instr == InstrCheckArgument && argsSeen == argIndex {
			return cur
		}
		switch instr {
		case InstrParsePart:
			child, ok := cur.incomplete[bundle.Parts[i]]
			if !ok {
				return nil
			}
			cur = child
		case InstrParsePartCaseInsensitive:
			child, ok := cur.incompleteCaseInsensitive[strings.ToLower(bundle.Parts[i])]
			if !ok {
				return nil
			}
			cur = child
		case InstrCheckArgument:
			children := cur.actions[InstrCheckArgument]
			if len(children) == 0 {
				return nil
			}
			cur = children[0]
			argsSeen++
		case InstrJumpBackward:
			if cur.backJump == nil {
				return nil
			}
			cur = cur.backJump
		}
	}
	return nil
}

// argumentSuccessor returns (creating it if necessary) the node shared
// by every plan's CheckArgument step at t: argument parsing doesn't
// depend on keyword structure, so every bundle argued past this point
// continues from the same successor.
func (t *BundleTree) argumentSuccessor() *BundleTree {
	children := t.actions[InstrCheckArgument]
	if len(children) == 0 {
		child := NewBundleTree()
		t.actions[InstrCheckArgument] = []*BundleTree{child}
		return child
	}
	return children[0]
}

// ensurePrefilter returns t.prefilter[excluded], creating it if it
// doesn't already exist: a freshly-built node seeded with every plan
// currently queued or completed at t's generic argument successor
// except restricted's own, so a parse whose argument resolved to
// excluded can never go on to complete restricted. Unlike the generic
// successor, a prefiltered node's own deeper edges are expanded
// independently rather than shared — a deliberate simplification over a
// full subtree prune (see DESIGN.md).
func (t *BundleTree) ensurePrefilter(excluded, restricted *MessageBundle) *BundleTree {
	if existing, ok := t.prefilter[excluded]; ok {
		return existing
	}
	generic := t.argumentSuccessor()
	pruned := NewBundleTree()
	for _, pp := range generic.plansInProgress {
		if pp.bundle != restricted {
			pruned.plansInProgress = append(pruned.plansInProgress, pp)
		}
	}
	for _, b := range generic.complete {
		if b != restricted {
			pruned.complete = append(pruned.complete, b)
		}
	}
	t.prefilter[excluded] = pruned
	return pruned
}

// isRestrictedAt reports whether bundle's own restrictions forbid
// excluded from supplying the argument at argIndex.
func isRestrictedAt(bundle *MessageBundle, argIndex int, excluded *MessageBundle) bool {
	for _, r := range bundle.Restrictions {
		if r.ArgIndex == argIndex && r.Excluded == excluded {
			return true
		}
	}
	return false
}

// ArgumentSuccessor returns the node reached after consuming one more
// argument whose parsed send resolved to argBundle: the prefiltered
// successor if some bundle's restriction excludes argBundle here,
// otherwise the generic argument successor.
func (t *BundleTree) ArgumentSuccessor(argBundle *MessageBundle) *BundleTree {
	if pruned, ok := t.prefilter[argBundle]; ok {
		return pruned
	}
	return t.argumentSuccessor()
}

// Expand consumes plansInProgress, advancing each by exactly one
// instruction and switching on its kind: ParsePart/
// ParsePartCaseInsensitive add or follow a keyword edge, CheckArgument
// advances through the shared argument successor (planting any
// newly-reachable restriction's prefilter entry there), JumpBackward
// redirects the plan back to the node it started expanding from rather
// than expanding forever — the same cycle guard the teacher's SLG engine
// applies to recursive nonterminal calls — and a plan with no
// instructions left becomes a complete leaf.
func (t *BundleTree) Expand() {
	pending := t.plansInProgress
	t.plansInProgress = nil
	for _, p := range pending {
		if p.instrIndex >= len(p.plan.Instructions) {
			t.complete = append(t.complete, p.bundle)
			continue
		}
		instr := p.plan.Instructions[p.instrIndex]
		next := p
		next.instrIndex++

		switch instr {
		case InstrParsePart:
			part := p.bundle.Parts[p.instrIndex]
			child, ok := t.incomplete[part]
			if !ok {
				child = NewBundleTree()
				t.incomplete[part] = child
			}
			child.plansInProgress = append(child.plansInProgress, next)

		case InstrParsePartCaseInsensitive:
			part := strings.ToLower(p.bundle.Parts[p.instrIndex])
			child, ok := t.incompleteCaseInsensitive[part]
			if !ok {
				child = NewBundleTree()
				t.incompleteCaseInsensitive[part] = child
			}
			child.plansInProgress = append(child.plansInProgress, next)

		case InstrCheckArgument:
			argIndex := p.argsSeen
			next.argsSeen = argIndex + 1
			generic := t.argumentSuccessor()
			generic.plansInProgress = append(generic.plansInProgress, next)
			for excluded, pruned := range t.prefilter {
				if !isRestrictedAt(p.bundle, argIndex, excluded) {
					pruned.plansInProgress = append(pruned.plansInProgress, next)
				}
			}
			for _, r := range p.bundle.Restrictions {
				if r.ArgIndex == argIndex {
					t.ensurePrefilter(r.Excluded, p.bundle)
				}
			}

		case InstrJumpBackward:
			origin := p.origin
			if origin == nil {
				origin = t
			}
			t.isSourceOfCycle = true
			t.backJump = origin
			origin.plansInProgress = append(origin.plansInProgress, next)

		default:
			panic(fmt.Sprintf("dispatch: unrecognized parsing instruction %d", instr))
		}
	}
}

// Complete returns the bundles whose parse plans are fully matched at
// this node.
func (t *BundleTree) Complete() []*MessageBundle { return t.complete }

// LookupPart follows an exact-case incomplete edge, falling back to the
// case-insensitive table, mirroring spec.md §4.3's keyword matching
// rule.
func (t *BundleTree) LookupPart(part string) (*BundleTree, bool) {
	if child, ok := t.incomplete[part]; ok {
		return child, true
	}
	child, ok := t.incompleteCaseInsensitive[strings.ToLower(part)]
	return child, ok
}
