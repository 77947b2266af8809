package classifier

import "errors"

var (
	// ErrEmptyTrainingSet is returned by Train when no usable rows remain
	ErrEmptyTrainingSet = errors.New("training set is empty")

	// ErrSingleClass is returned by Train when every row carries the same label
	ErrSingleClass = errors.New("training set contains a single class")

	// ErrIncompleteVector is returned when a feature vector has an undefined component
	ErrIncompleteVector = errors.New("emotion vector is incomplete")

	// ErrCorpusHeader is returned by LoadCorpus when a required column is missing
	ErrCorpusHeader = errors.New("corpus header is missing a required column")
)
