// Copyright 2026 The Kozos Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package xmodem

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	var payload [PayloadSize]byte
	for i := range payload {
		payload[i] = byte(i * 7)
	}
	frame := Encode(42, payload)
	if len(frame) != FrameSize {
		t.Fatalf("len(frame) = %d, want %d", len(frame), FrameSize)
	}
	if frame[0] != SOH {
		t.Fatalf("frame[0] = %#x, want SOH", frame[0])
	}

	block, err := Decode(frame[1:])
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	want := Block{Number: 42, Payload: payload, Checksum: Checksum(payload[:])}
	if diff := cmp.Diff(want, block); diff != "" {
		t.Errorf("Decode round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeRejectsBadComplement(t *testing.T) {
	var payload [PayloadSize]byte
	frame := Encode(5, payload)
	frame[2] ^= 0xFF // corrupt the complement byte
	if _, err := Decode(frame[1:]); err != ErrBadFrame {
		t.Fatalf("Decode = %v, want ErrBadFrame", err)
	}
}

func TestDecodeRejectsBadChecksum(t *testing.T) {
	var payload [PayloadSize]byte
	payload[0] = 1
	frame := Encode(5, payload)
	frame[len(frame)-1] ^= 0xFF // corrupt the checksum byte
	if _, err := Decode(frame[1:]); err != ErrBadFrame {
		t.Fatalf("Decode = %v, want ErrBadFrame", err)
	}
}

// TestChecksumCommutative verifies the checksum depends only on the
// multiset of payload bytes, not their order, since sum is commutative.
func TestChecksumCommutative(t *testing.T) {
	var payload [PayloadSize]byte
	rng := rand.New(rand.NewSource(1))
	rng.Read(payload[:])

	original := Checksum(payload[:])

	shuffled := payload
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	if got := Checksum(shuffled[:]); got != original {
		t.Fatalf("Checksum(shuffled) = %d, want %d", got, original)
	}
}

func TestBlockNumberComplementInvariant(t *testing.T) {
	for n := 0; n < 256; n++ {
		number := byte(n)
		complement := ^number
		if number+complement != 0xFF {
			t.Fatalf("number=%d complement=%d sum=%d, want 0xFF", number, complement, number+complement)
		}
	}
}
