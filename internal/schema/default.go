package schema

import "cpseval/domain/scoring"

// DefaultEntries is the nine-metric set used for the RAG threshold study:
// lexical overlap, semantic similarity, fluency and two perplexities.
func DefaultEntries() []Entry {
	return []Entry{
		{Name: "METEOR", Weight: 0.15, Polarity: scoring.HigherIsBetter, Category: scoring.CategoryPrecision,
			Aliases: []string{"meteor_score"}},
		{Name: "Rouge-2.f", Weight: 0.075, Polarity: scoring.HigherIsBetter, Category: scoring.CategoryRecall,
			Aliases: []string{"ROUGE-2 F", "rouge2_f", "Rouge-2 F1"}},
		{Name: "Rouge-l.f", Weight: 0.075, Polarity: scoring.HigherIsBetter, Category: scoring.CategoryRecall,
			Aliases: []string{"ROUGE-L F", "rougel_f", "Rouge-L F1"}},
		{Name: "Bert-Score.f1", Weight: 0.125, Polarity: scoring.HigherIsBetter, Category: scoring.CategorySemantic,
			Aliases: []string{"BERTScore F1", "bert_score_f1", "BertScore.f1"}},
		{Name: "B-RT.average", Weight: 0.125, Polarity: scoring.HigherIsBetter, Category: scoring.CategorySemantic,
			Aliases: []string{"BRT average", "brt_average"}},
		{Name: "F1 score", Weight: 0.15, Polarity: scoring.HigherIsBetter, Category: scoring.CategoryPrecision,
			Aliases: []string{"F1", "f1_score"}},
		{Name: "B-RT.fluency", Weight: 0.10, Polarity: scoring.HigherIsBetter, Category: scoring.CategoryFluency,
			Aliases: []string{"BRT fluency", "brt_fluency"}},
		{Name: "Laplace Perplexity", Weight: 0.10, Polarity: scoring.LowerIsBetter, Category: scoring.CategoryFluency,
			Aliases: []string{"laplace_perplexity"}},
		{Name: "Lidstone Perplexity", Weight: 0.10, Polarity: scoring.LowerIsBetter, Category: scoring.CategoryFluency,
			Aliases: []string{"lidstone_perplexity"}},
	}
}

// Default returns the validated built-in schema. It panics only if the
// built-in table itself is malformed.
func Default() *Schema {
	s, err := New(DefaultEntries())
	if err != nil {
		panic("built-in metric schema is invalid: " + err.Error())
	}
	return s
}
