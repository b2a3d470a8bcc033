package registry

import (
	"strconv"

	"github.com/seanchatmangpt/clap-noun-verb-sub004/rdf"
	"github.com/seanchatmangpt/clap-noun-verb-sub004/store"
)

// Vocabulary IRIs for the command ontology.
const (
	RDFType = rdf.IRI("http://www.w3.org/1999/02/22-rdf-syntax-ns#type")

	NS = "urn:cnv:schema#"

	ClassCommand  = rdf.IRI(NS + "Command")
	ClassArgument = rdf.IRI(NS + "Argument")
	ClassType     = rdf.IRI(NS + "Type")

	PredName     = rdf.IRI(NS + "name")
	PredNoun     = rdf.IRI(NS + "noun")
	PredVerb     = rdf.IRI(NS + "verb")
	PredSummary  = rdf.IRI(NS + "summary")
	PredHasArg   = rdf.IRI(NS + "hasArg")
	PredArgType  = rdf.IRI(NS + "argType")
	PredRequired = rdf.IRI(NS + "required")
)

// CommandIRI returns the subject IRI for a command.
func CommandIRI(name string) rdf.IRI {
	return rdf.IRI("urn:cnv:command/" + name)
}

// ArgIRI returns the subject IRI for one argument of a command.
func ArgIRI(command, arg string) rdf.IRI {
	return rdf.IRI("urn:cnv:command/" + command + "/arg/" + arg)
}

// TypeIRI returns the subject IRI for an argument type.
func TypeIRI(t ArgType) rdf.IRI {
	return rdf.IRI("urn:cnv:type/" + string(t))
}

// Compile turns the catalogue into triples.
func (c *Catalogue) Compile() []rdf.Triple {
	var triples []rdf.Triple

	for _, t := range c.ArgTypes() {
		typeIRI := TypeIRI(t)
		triples = append(triples,
			rdf.T(typeIRI, RDFType, ClassType),
			rdf.T(typeIRI, PredName, rdf.NewLiteral(string(t))),
		)
	}

	for _, cmd := range c.Commands {
		cmdIRI := CommandIRI(cmd.Name)
		triples = append(triples,
			rdf.T(cmdIRI, RDFType, ClassCommand),
			rdf.T(cmdIRI, PredName, rdf.NewLiteral(cmd.Name)),
			rdf.T(cmdIRI, PredNoun, rdf.NewLiteral(cmd.Noun)),
			rdf.T(cmdIRI, PredVerb, rdf.NewLiteral(cmd.Verb)),
		)
		if cmd.Summary != "" {
			triples = append(triples, rdf.T(cmdIRI, PredSummary, rdf.NewLiteral(cmd.Summary)))
		}
		for _, arg := range cmd.Args {
			argIRI := ArgIRI(cmd.Name, arg.Name)
			triples = append(triples,
				rdf.T(cmdIRI, PredHasArg, argIRI),
				rdf.T(argIRI, RDFType, ClassArgument),
				rdf.T(argIRI, PredName, rdf.NewLiteral(arg.Name)),
				rdf.T(argIRI, PredArgType, TypeIRI(arg.Type)),
				rdf.T(argIRI, PredRequired, rdf.NewLiteral(strconv.FormatBool(arg.Required))),
			)
		}
	}
	return triples
}

// BuildStore compiles the catalogue and freezes it into a triple store.
func (c *Catalogue) BuildStore() *store.TripleStore {
	b := store.NewBuilder()
	b.InsertAll(c.Compile())
	return b.Build()
}
