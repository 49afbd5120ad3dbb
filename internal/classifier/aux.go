package classifier

import "context"

// AuxScores are secondary signals on independent 0-1 scales. They never
// influence the primary label and are not required to sum with anything.
type AuxScores struct {
	FakeNews float64
	Sarcasm  float64
}

var sarcasmMapping = Mapping{
	"SARCASM":     "SARCASM",
	"NOT_SARCASM": "NOT_SARCASM",
	"LABEL_1":     "SARCASM",
	"LABEL_0":     "NOT_SARCASM",
	"IRONY":       "SARCASM",
}

// AuxScorer combines the secondary fake-news checkpoint with the sarcasm
// detector. Both calls share the caller's deadline; either failure fails
// the whole aux read and the caller degrades by omitting the fields.
type AuxScorer struct {
	fakeNews Capability
	sarcasm  Capability
	mapping  Mapping
}

func NewAuxScorer(fakeNews, sarcasm Capability, mapping Mapping) *AuxScorer {
	if mapping == nil {
		mapping = DefaultMapping()
	}
	return &AuxScorer{fakeNews: fakeNews, sarcasm: sarcasm, mapping: mapping}
}

func (a *AuxScorer) Ready(ctx context.Context) bool {
	return a.fakeNews.Ready(ctx) && a.sarcasm.Ready(ctx)
}

func (a *AuxScorer) Scores(ctx context.Context, text string) (AuxScores, error) {
	fakeRaw, err := a.fakeNews.RawScores(ctx, text)
	if err != nil {
		return AuxScores{}, err
	}
	sarcasmRaw, err := a.sarcasm.RawScores(ctx, text)
	if err != nil {
		return AuxScores{}, err
	}
	return AuxScores{
		FakeNews: MassOf(fakeRaw, a.mapping, LabelFake),
		Sarcasm:  MassOf(sarcasmRaw, sarcasmMapping, "SARCASM"),
	}, nil
}
