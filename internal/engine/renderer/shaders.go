package renderer

// Attribute locations shared by the mesh and instanced paths.
const (
	attrPosition = 0
	attrNormal   = 1
	attrColor    = 2
	attrModel    = 3 // occupies 3..6, one column each
)

const vertexShaderSource = `
	#version 410 core

	layout (location = 0) in vec3 aPos;
	layout (location = 1) in vec3 aNormal;
	layout (location = 2) in vec3 aInstanceColor;
	layout (location = 3) in mat4 aInstanceModel;

	uniform mat4 uViewProj;
	uniform mat4 uModel;
	uniform vec3 uColor;
	uniform bool uInstanced;

	out vec3 vNormal;
	out vec3 vColor;

	void main() {
		mat4 model = uInstanced ? aInstanceModel : uModel;
		vColor = uInstanced ? aInstanceColor : uColor;
		vNormal = mat3(model) * aNormal;
		gl_Position = uViewProj * model * vec4(aPos, 1.0);
	}
`

const fragmentShaderSource = `
	#version 410 core

	in vec3 vNormal;
	in vec3 vColor;

	uniform bool uUnlit;
	uniform float uOpacity;
	uniform vec3 uLightDir;
	uniform float uAmbient;

	out vec4 FragColor;

	void main() {
		if (uUnlit || length(vNormal) < 0.001) {
			FragColor = vec4(vColor, uOpacity);
			return;
		}
		float diffuse = max(dot(normalize(vNormal), uLightDir), 0.0);
		FragColor = vec4(vColor * (uAmbient + (1.0 - uAmbient) * diffuse), uOpacity);
	}
`
