// Package sentiment turns raw classification payloads into canonical scores.
//
// Normalize validates a flat batch and maps LABEL_0/1/2 onto negative/neutral/positive.
// Nested batches are unwrapped explicitly by the caller via UnwrapBatch or Decode.
package sentiment
