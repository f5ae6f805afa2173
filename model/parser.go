package model

import (
	"reflect"
	"time"

	"github.com/gofhir/arbor"
	"github.com/gofhir/arbor/accessor"
	"github.com/gofhir/arbor/tree"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var errNilType = errors.New("nil type")

// Parser builds element trees. It is safe for concurrent use.
type Parser struct {
	lexer   *Lexer
	backend accessor.Backend
	log     logrus.FieldLogger
	metrics *arbor.Metrics
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithParserLogger sets the logger.
func WithParserLogger(log logrus.FieldLogger) ParserOption {
	return func(p *Parser) {
		if log != nil {
			p.log = log
		}
	}
}

// WithParserMetrics records parse counts and durations into m.
func WithParserMetrics(m *arbor.Metrics) ParserOption {
	return func(p *Parser) {
		p.metrics = m
	}
}

// NewParser creates a parser classifying with lexer and binding accessors
// from backend.
func NewParser(lexer *Lexer, backend accessor.Backend, opts ...ParserOption) *Parser {
	p := &Parser{
		lexer:   lexer,
		backend: backend,
		log:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// draft is an element whose children are not yet placed in a tree.
type draft struct {
	el       *Element
	children []*draft
}

// Parse builds the tree of struct type t. A pointer to a struct is accepted
// and parsed as the struct.
func (p *Parser) Parse(t reflect.Type) (tr *Tree, err error) {
	if t == nil {
		return nil, arbor.ConfigurationError("", "", errNilType)
	}
	t = accessor.Indirect(t)
	if t.Kind() != reflect.Struct {
		return nil, arbor.ConfigurationError(typeName(t), "", errors.Errorf("cannot parse %s, want a struct", t.Kind()))
	}

	start := time.Now()
	log := p.log.WithField("type", t.String())
	log.Debug("parse started")
	defer func() {
		d := time.Since(start)
		p.metrics.RecordParse(d, err == nil)
		if err != nil {
			log.WithError(err).Warn("parse failed")
			return
		}
		log.WithFields(logrus.Fields{
			"elements": tr.Len(),
			"duration": d,
		}).Debug("parse finished")
	}()

	shared := NewShared()
	ctor, err := p.backend.ConstructorFor(t)
	if err != nil {
		return nil, err
	}
	root := &draft{el: &Element{
		desc:      rootDescriptor(t),
		node:      true,
		acc:       accessor.Self(t),
		ctor:      ctor,
		shared:    shared,
		unordered: p.lexer.Oracle().Directive(t).Unordered,
	}}

	path := Path{t: {}}
	if root.children, err = p.expand(t, path, shared); err != nil {
		return nil, err
	}

	b := tree.NewBuilder(root.el)
	assemble(b, root.children)
	node, err := b.Build()
	if err != nil {
		return nil, errors.Wrap(err, "build tree")
	}
	return newTree(t, node, shared), nil
}

// expand returns the drafts for the members of struct type t, recursing
// into nodes. path holds t and the types enclosing it.
func (p *Parser) expand(t reflect.Type, path Path, shared *Shared) ([]*draft, error) {
	var drafts []*draft
	for _, f := range p.lexer.Members(t) {
		d := DescriptorOf(t, f)
		kind, marker, err := p.lexer.Classify(d, path)
		if err != nil {
			return nil, err
		}

		switch kind {
		case Leaf:
			acc, err := p.backend.AccessorFor(t, f)
			if err != nil {
				return nil, err
			}
			drafts = append(drafts, &draft{el: &Element{
				desc:   d,
				marker: marker,
				acc:    acc,
				shared: shared,
			}})

		case Node:
			target := d.Target()
			acc, err := p.backend.AccessorFor(t, f)
			if err != nil {
				return nil, err
			}
			ctor, err := p.backend.ConstructorFor(target)
			if err != nil {
				return nil, err
			}
			n := &draft{el: &Element{
				desc:      d,
				node:      true,
				acc:       acc,
				ctor:      ctor,
				shared:    shared,
				unordered: p.lexer.Oracle().Directive(target).Unordered,
			}}
			path[target] = struct{}{}
			n.children, err = p.expand(target, path, shared)
			delete(path, target)
			if err != nil {
				return nil, err
			}
			drafts = append(drafts, n)
		}
	}

	return applyOrder(t, drafts, p.lexer.Oracle().Directive(t).Order)
}

func assemble(b *tree.Builder[*Element], drafts []*draft) {
	for _, d := range drafts {
		assemble(b.AddChild(d.el), d.children)
	}
}
