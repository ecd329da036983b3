package engine

import (
	"crypto/hmac"
	cryptorand "crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"math/rand"
)

// Source yields floats in [0,1). Both the verdict calculator and the
// confirmation simulator draw from a Source handed to them explicitly,
// never from process-wide RNG state.
type Source interface {
	NextFloat() float64
}

// Seeds identifies a deterministic resolution stream.
type Seeds struct {
	Server string // ASCII; never hex-decoded
	Client string
}

// ByteGenerator streams cryptographically derived bytes using
// HMAC-SHA256(server, client:nonce:round). A resolution replayed with the
// same seeds and nonce consumes the identical float sequence, so both the
// verdict and the full marker trajectory reproduce bit for bit.
type ByteGenerator struct {
	seeds        Seeds
	nonce        uint64
	currentRound uint64
	currentPos   int
	buffer       [32]byte
}

// NewByteGenerator creates a generator positioned at the given cursor.
func NewByteGenerator(seeds Seeds, nonce uint64, cursor uint64) *ByteGenerator {
	bg := &ByteGenerator{
		seeds:        seeds,
		nonce:        nonce,
		currentRound: cursor / 32,
		currentPos:   int(cursor % 32),
	}
	bg.generateRound()
	return bg
}

// Next returns the next byte from the stream.
func (bg *ByteGenerator) Next() byte {
	if bg.currentPos >= 32 {
		bg.currentRound++
		bg.currentPos = 0
		bg.generateRound()
	}

	b := bg.buffer[bg.currentPos]
	bg.currentPos++
	return b
}

// NextFloat consumes exactly 4 bytes and maps them into [0,1).
func (bg *ByteGenerator) NextFloat() float64 {
	b0 := bg.Next()
	b1 := bg.Next()
	b2 := bg.Next()
	b3 := bg.Next()

	return bytesToFloat([4]byte{b0, b1, b2, b3})
}

func (bg *ByteGenerator) generateRound() {
	h := hmac.New(sha256.New, []byte(bg.seeds.Server))
	message := fmt.Sprintf("%s:%d:%d", bg.seeds.Client, bg.nonce, bg.currentRound)
	h.Write([]byte(message))
	copy(bg.buffer[:], h.Sum(nil))
}

func bytesToFloat(bytes [4]byte) float64 {
	result := 0.0
	for i, b := range bytes {
		divider := math.Pow(256, float64(i+1))
		result += float64(b) / divider
	}
	return result
}

// Floats generates count floats for the given stream position.
func Floats(seeds Seeds, nonce uint64, cursor uint64, count int) []float64 {
	bg := NewByteGenerator(seeds, nonce, cursor)
	floats := make([]float64, count)

	for i := 0; i < count; i++ {
		floats[i] = bg.NextFloat()
	}

	return floats
}

// Rand adapts math/rand to Source for live (non-replay) dispatch.
type Rand struct {
	rng *rand.Rand
}

// NewRand creates a seeded Source.
func NewRand(seed int64) *Rand {
	return &Rand{rng: rand.New(rand.NewSource(seed))}
}

func (r *Rand) NextFloat() float64 {
	return r.rng.Float64()
}

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := cryptorand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}

	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// HashServerSeed returns the SHA-256 hex digest published as the seed
// commitment before the server seed itself is revealed.
func HashServerSeed(serverSeed string) string {
	if serverSeed == "" {
		return ""
	}

	hash := sha256.Sum256([]byte(serverSeed))
	return hex.EncodeToString(hash[:])
}
