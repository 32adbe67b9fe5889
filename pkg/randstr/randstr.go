package randstr

import "math/rand/v2"

type Generator struct {
	letterBytes []byte
}

func New(letterBytes []byte) *Generator {
	return &Generator{letterBytes: letterBytes}
}

func (g Generator) GenerateRandomString(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = g.letterBytes[rand.IntN(len(g.letterBytes))]
	}

	return string(b)
}
