// Command apex is a thin runnable wrapper around the pattern lookup
// core: it is not part of the subject of this module, it exists only
// so the core is exercisable locally. Its one subcommand loads a
// directory of pattern YAML files into a store, runs one lookup
// against it, and prints the ranked result and the metrics snapshot.
package main

func main() {
	Execute()
}
