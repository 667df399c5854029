// Command heapscan inspects heap images: it scans objects for references,
// verifies the alignment patterns embedded in type pointers and reports
// reachability statistics.
package main

func main() {
	execute()
}
