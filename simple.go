package zipper

// A SimpleFinder is an implementation of the MatchFinder interface that
// scans every position in the window. It is far too slow for production use
// (O(n·window)), but its behavior is easy to verify by inspection, so it
// serves as the reference that ChainFinder is tested against.
type SimpleFinder struct {
	parser GreedyParser

	history []byte
}

func (s *SimpleFinder) Reset() {
	s.history = s.history[:0]
}

// FindMatches looks for matches in src, appends them to dst, and returns dst.
func (s *SimpleFinder) FindMatches(dst []Match, src []byte) []Match {
	if len(s.history) > maxHistory {
		delta := len(s.history) - minHistory
		copy(s.history, s.history[delta:])
		s.history = s.history[:minHistory]
	}

	nextEmit := len(s.history)
	s.history = append(s.history, src...)

	return s.parser.Parse(dst, s, nextEmit, len(s.history))
}

func (s *SimpleFinder) Search(dst []AbsoluteMatch, pos, min, max int) []AbsoluteMatch {
	src := s.history
	if pos+minMatchLength > len(src) {
		return dst
	}

	limit := pos + maxMatchLength
	if limit > max {
		limit = max
	}
	maxDist := pos
	if maxDist > maxDistance {
		maxDist = maxDistance
	}

	// Scanning distances in ascending order and only keeping strictly
	// longer candidates gives the nearest match for any given length.
	var length int
	for dist := 1; dist <= maxDist; dist++ {
		candidate := pos - dist
		if src[candidate] != src[pos] {
			continue
		}
		newEnd := extendMatch(src[:limit], candidate+1, pos+1)
		if newEnd-pos > length {
			dst = append(dst, AbsoluteMatch{
				Start: pos,
				End:   newEnd,
				Match: candidate,
			})
			length = newEnd - pos
			if newEnd == limit {
				break
			}
		}
	}

	return dst
}
