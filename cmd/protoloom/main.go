// protoloom is a small CLI driving the dynamic gRPC engine directly, for
// local testing and as a worked example of the host-integration contract.
package main

func main() {
	Execute()
}
