package internal

import (
	"fmt"
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

var gpt4o = sync.OnceValues(func() (tokenizer.Codec, error) {
	return tokenizer.ForModel(tokenizer.GPT4o)
})

// EncodeStringByTiktoken encodes a string into token IDs using the GPT-4o tokenizer.
// It returns a slice of token IDs and an error if tokenization fails.
func EncodeStringByTiktoken(content string) ([]uint, error) {
	enc, err := gpt4o()
	if err != nil {
		return nil, fmt.Errorf("failed to get tokenizer: %w", err)
	}

	ids, _, err := enc.Encode(content)
	if err != nil {
		return nil, fmt.Errorf("failed to encode string: %w", err)
	}

	return ids, nil
}

// CountTokens counts the number of tokens in a string using the GPT-4o tokenizer.
// It takes a string input and returns the token count and an error if tokenization fails.
func CountTokens(content string) (int, error) {
	tokenIDs, err := EncodeStringByTiktoken(content)
	if err != nil {
		return 0, fmt.Errorf("failed to encode string: %w", err)
	}
	return len(tokenIDs), nil
}
