// Package core ties the drive together: the control task that runs the
// mode state machine every tick, the shared state the other tasks talk
// to it through, the command dispatcher and the bus-voltage monitor.
// Hardware access goes through small driver interfaces so the package
// builds and tests on the host.
package core
