// Package skeleton emits the static Spring controller and service classes
// that front the generated routes. Their content does not depend on the IR.
package skeleton

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/i2y/camelconv/internal/domain"
)

const (
	DefaultPackage     = "com.example.demo"
	ControllerFileName = "EndpointInformationController.java"
	ServiceFileName    = "EndpointInformationService.java"
	MediaType          = "text/x-java-source"
)

var packagePattern = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*(\.[A-Za-z_$][A-Za-z0-9_$]*)*$`)

const controllerTemplate = `package %[1]s.controller;

import org.springframework.beans.factory.annotation.Autowired;
import org.springframework.web.bind.annotation.*;
import %[1]s.service.EndpointInformationService;

@RestController
@RequestMapping("/api")
public class EndpointInformationController {

    @Autowired
    private EndpointInformationService endpointInformationService;

    @PostMapping("{endpoint}")
    public void processRequest(@PathVariable String endpoint) {
        endpointInformationService.process(endpoint);
    }
}
`

const serviceTemplate = `package %[1]s.service;

import org.springframework.stereotype.Service;

@Service
public class EndpointInformationService {

    public void process(String endpoint) {
        // Implement the logic to handle the route steps here
    }
}
`

// ValidatePackage reports whether pkg is a dotted Java package name.
func ValidatePackage(pkg string) error {
	if !packagePattern.MatchString(pkg) {
		return fmt.Errorf("invalid Java package name %q", pkg)
	}
	return nil
}

// Emit returns the controller and service sources for base package pkg. An
// empty pkg selects DefaultPackage.
func Emit(pkg string) ([]domain.Artifact, error) {
	pkg = strings.TrimSpace(pkg)
	if pkg == "" {
		pkg = DefaultPackage
	}
	if err := ValidatePackage(pkg); err != nil {
		return nil, err
	}
	return []domain.Artifact{
		{Name: ControllerFileName, MediaType: MediaType, Content: []byte(fmt.Sprintf(controllerTemplate, pkg))},
		{Name: ServiceFileName, MediaType: MediaType, Content: []byte(fmt.Sprintf(serviceTemplate, pkg))},
	}, nil
}
