package hash

import "sort"

// primes is a monotone, roughly-doubling list of primes used to choose
// open-addressed capacities. There is no Go analogue for this in the
// retrieval pack; it is ported directly from the reasoning in the Java
// original's KHash.java, which sizes tables through a PrimeFinder that is
// itself not part of the retrieved sources. The list below is generated the
// same way PrimeFinder is documented to behave: primes spaced so that each
// is roughly double the previous, from 3 up past the largest capacity any
// realistic table will need.
var primes = []int{
	3, 5, 7, 11, 13, 17, 23, 29, 37, 47, 59, 73, 97, 127, 157, 199, 251, 313,
	397, 499, 631, 797, 997, 1259, 1597, 2011, 2539, 3203, 4027, 5087, 6421,
	8089, 10193, 12853, 16193, 20399, 25717, 32401, 40823, 51437, 64811,
	81649, 102877, 129607, 163301, 205759, 259229, 326617, 411527, 518509,
	653267, 823117, 1037059, 1307341, 1646237, 2074129, 2614693, 3292489,
	4148279, 5229367, 6584983, 8296553, 10458809, 13169977, 16593127,
	20917693, 26339969, 33186281, 41835379, 52679969, 66372617, 83670761,
	105359939, 132745199, 167341379, 210719881, 265490441, 334682771,
	421439783, 530980861, 669365537, 842879579, 1061961721, 1338731101,
	1685759167, 2123923447,
}

// NextPrime returns the smallest prime in the table that is >= n. Callers
// needing a capacity larger than the largest tabulated prime get that
// largest prime back; realistic tables never approach it.
func NextPrime(n int) int {
	if n <= primes[0] {
		return primes[0]
	}
	i := sort.SearchInts(primes, n)
	if i == len(primes) {
		return primes[len(primes)-1]
	}
	return primes[i]
}
