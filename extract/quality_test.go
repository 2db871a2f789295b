package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const goodText = "A energia solar fotovoltaica cresceu de forma acelerada no mercado " +
	"brasileiro durante os últimos anos, impulsionada pela queda nos custos dos " +
	"equipamentos importados. Analistas do setor elétrico apontam que a geração " +
	"distribuída residencial já representa parcela relevante da capacidade instalada " +
	"nacional. Além disso, novas linhas de financiamento facilitaram o acesso das " +
	"famílias aos sistemas completos. Especialistas esperam expansão contínua, embora " +
	"mudanças regulatórias possam alterar o ritmo desse crescimento nos próximos ciclos."

func TestCheckQualityAcceptsProse(t *testing.T) {
	assert.NoError(t, checkQuality(goodText, 200))
}

func TestCheckQualityRejectsShortText(t *testing.T) {
	err := checkQuality("Texto curto demais.", 200)
	assert.ErrorIs(t, err, ErrPageRejected)
}

func TestCheckQualityRejectsFewWords(t *testing.T) {
	text := strings.Repeat("palavra diferente aqui agora mesmo ", 6) // ~30 words, >200 chars
	err := checkQuality(text, 100)
	assert.ErrorIs(t, err, ErrPageRejected)
}

func TestCheckQualityRejectsFewSentences(t *testing.T) {
	// Plenty of words, one sentence.
	words := make([]string, 60)
	for i := range words {
		words[i] = "palavra" + string(rune('a'+i%26))
	}
	text := strings.Join(words, " ") + "."
	err := checkQuality(text, 100)
	assert.ErrorIs(t, err, ErrPageRejected)
	assert.Contains(t, err.Error(), "sentences")
}

func TestCheckQualityRejectsLowDiversity(t *testing.T) {
	// Repetitive auto-generated shape: many words, tiny vocabulary.
	text := strings.Repeat("comprar barato agora. ", 40)
	err := checkQuality(text, 100)
	assert.ErrorIs(t, err, ErrPageRejected)
	assert.Contains(t, err.Error(), "diversity")
}

func TestCountSentencesIgnoresTinySegments(t *testing.T) {
	assert.Equal(t, 2, countSentences("Primeira frase completa aqui. Ok. Segunda frase completa aqui."))
}
