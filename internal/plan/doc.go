// Package plan builds the query plans behind every catalog read.
//
// Plans are queryir values; nothing here writes SQL. A listing page is a
// store.Batch: the parent statement over the latest-version row source,
// one statement per child row-set restricted to the same page, and for
// continuation pages an anchor statement that proves the cursor's position
// still exists.
//
// Ordering is always total. The requested sort key comes first and
// artifact_id breaks ties, in the same direction, and a continuation page
// is the rows strictly after the previous page's last (sort key, id) pair.
// That keeps pages free of duplicates and gaps while new artifacts are
// appended between requests.
package plan
