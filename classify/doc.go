// Package classify decides whether a speech snippet belongs to an
// enrolled employee or a customer. Three stages run in order: a trained
// classifier over the snippet's feature vector, cosine similarity
// against enrolled voice profiles, and a Korean text heuristic over the
// transcript. The first stage confident enough wins; the text stage
// always produces an answer, so classification never comes back empty.
package classify
