package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"focdrive/host/drive"
)

var (
	device = flag.String("device", "/dev/ttyACM0", "Serial device path")
	baud   = flag.Int("baud", 115200, "Baud rate (ignored for USB CDC)")
)

func main() {
	flag.Parse()

	fmt.Println("focctl - motor drive control console")
	fmt.Println()

	fmt.Printf("Connecting to drive on %s...\n", *device)
	conn, err := drive.Connect(*device, *baud)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()

	fmt.Println("Connected. Type 'help' for available commands, 'quit' to exit.")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := parts[0]

		var cmdErr error
		switch cmd {
		case "quit", "exit", "q":
			fmt.Println("Goodbye!")
			return

		case "help", "?":
			printHelp()

		case "speed":
			cmdErr = cmdSpeed(conn, parts[1:])

		case "gains":
			cmdErr = cmdGains(conn, parts[1:])

		case "on":
			cmdErr = conn.SetEnabled(true)

		case "off":
			cmdErr = conn.SetEnabled(false)

		case "estop":
			cmdErr = conn.EmergencyStop()

		case "cal":
			cmdErr = cmdCalibrate(conn, parts[1:])

		case "save":
			cmdErr = conn.SaveConfig()

		case "reload":
			cmdErr = conn.ReloadConfig()

		case "reset":
			cmdErr = conn.ResetConfig()

		case "status":
			printStatus(conn)

		default:
			fmt.Printf("Unknown command: %s (type 'help' for available commands)\n", cmd)
		}

		if cmdErr != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", cmdErr)
		}
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		os.Exit(1)
	}
}

func cmdSpeed(conn *drive.Drive, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: speed <rpm>")
	}
	rpm, err := strconv.ParseFloat(args[0], 32)
	if err != nil {
		return fmt.Errorf("invalid rpm %q: %w", args[0], err)
	}
	return conn.SetSpeed(float32(rpm))
}

func cmdGains(conn *drive.Drive, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: gains <kp> <ki>")
	}
	kp, err := strconv.ParseFloat(args[0], 32)
	if err != nil {
		return fmt.Errorf("invalid kp %q: %w", args[0], err)
	}
	ki, err := strconv.ParseFloat(args[1], 32)
	if err != nil {
		return fmt.Errorf("invalid ki %q: %w", args[1], err)
	}
	return conn.SetGains(float32(kp), float32(ki))
}

func cmdCalibrate(conn *drive.Drive, args []string) error {
	torque := uint8(0)
	if len(args) == 1 {
		t, err := strconv.ParseUint(args[0], 10, 8)
		if err != nil || t > 100 {
			return fmt.Errorf("torque must be 0-100, got %q", args[0])
		}
		torque = uint8(t)
	}
	return conn.StartCalibration(torque)
}

func printStatus(conn *drive.Drive) {
	motor := conn.MotorStatus()
	voltage := conn.VoltageStatus()
	cfg := conn.ConfigStatus()

	fmt.Printf("Motor:   %.1f RPM, electrical angle %.3f rad\n",
		motor.SpeedRPM, motor.ElectricalAngle)
	fmt.Printf("Bus:     %.1f V (overvoltage=%v undervoltage=%v)\n",
		voltage.Voltage, voltage.Overvoltage, voltage.Undervoltage)
	fmt.Printf("Config:  version %d, crc valid=%v\n", cfg.Version, cfg.CRCValid)

	if cal, ok := conn.CalibrationStatus(); ok {
		fmt.Printf("Cal:     offset %.4f rad, inversed=%v, success=%v\n",
			cal.ElectricalOffset, cal.DirectionInversed, cal.Success)
	} else {
		fmt.Println("Cal:     no result yet")
	}
}

func printHelp() {
	fmt.Println("\nAvailable commands:")
	fmt.Println("  speed <rpm>       - Set target speed")
	fmt.Println("  gains <kp> <ki>   - Set speed loop PI gains")
	fmt.Println("  on / off          - Enable / disable the motor")
	fmt.Println("  estop             - Emergency stop")
	fmt.Println("  cal [torque%]     - Run sensor calibration")
	fmt.Println("  save              - Persist configuration")
	fmt.Println("  reload            - Reload stored configuration")
	fmt.Println("  reset             - Restore default configuration")
	fmt.Println("  status            - Show latest telemetry")
	fmt.Println("  quit/exit/q       - Exit the program")
	fmt.Println()
}
